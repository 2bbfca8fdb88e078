package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/courtside/internal/decision"
	"github.com/yourusername/courtside/internal/market"
	"github.com/yourusername/courtside/internal/metrics"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/service"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// AnalyzeRequest asks for a decision on one matchup. Matchup takes the
// "AWY @ HOM" or "HOM vs. AWY" form; Home and Away may be given instead.
// Date defaults to today (UTC).
type AnalyzeRequest struct {
	Matchup  string           `json:"matchup,omitempty"`
	Home     string           `json:"home,omitempty"`
	Away     string           `json:"away,omitempty"`
	Date     string           `json:"date,omitempty"`
	HomeOdds *market.TeamOdds `json:"home_odds,omitempty"`
	AwayOdds *market.TeamOdds `json:"away_odds,omitempty"`
}

// AnalyzeResponse carries the outcome of one analysis
type AnalyzeResponse struct {
	Status         decision.Status       `json:"status"`
	Recommendation models.Recommendation `json:"recommendation"`
	Error          string                `json:"error,omitempty"`
	DurationMS     int64                 `json:"duration_ms"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   s.cfg.ServiceName,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Version:   s.cfg.Version,
	})
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: s.cfg.ServiceName,
	})
}

// handleReady reports ready once a history snapshot is serving and the
// database, when configured, answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	if s.scanner.Ready() {
		checks["snapshot"] = "ok"
	} else {
		allHealthy = false
		checks["snapshot"] = "not_ready"
	}

	if s.cfg.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := s.cfg.DB.Ping(ctx); err != nil {
			allHealthy = false
			checks["database"] = fmt.Sprintf("error: %v", err)
		} else {
			checks["database"] = "ok"
		}
	}

	response := ReadyResponse{
		Service:  s.cfg.ServiceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}

	if allHealthy {
		response.Status = "ok"
		respondJSON(w, http.StatusOK, response)
		return
	}
	response.Status = "not_ready"
	respondJSON(w, http.StatusServiceUnavailable, response)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.analyzeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	req, err := s.toRequest(body)
	if err != nil {
		s.analyzeError(w, http.StatusBadRequest, err.Error(), err)
		return
	}

	out, err := s.scanner.Analyze(r.Context(), req)
	if err != nil {
		s.analyzeError(w, http.StatusServiceUnavailable, "scanner not ready", err)
		return
	}

	status := http.StatusOK
	if out.Failed() {
		status = http.StatusInternalServerError
		if errors.Is(out.Err, models.ErrData) || errors.Is(out.Err, models.ErrFeatureMismatch) {
			status = http.StatusUnprocessableEntity
		}
	}
	metrics.RecordAnalyzeRequest(strconv.Itoa(status))
	respondJSON(w, status, AnalyzeResponse{
		Status:         out.Status,
		Recommendation: out.Recommendation,
		Error:          out.ErrorMessage(),
		DurationMS:     out.Duration.Milliseconds(),
	})
}

// toRequest resolves the matchup and converts any supplied odds into quotes
func (s *Server) toRequest(body AnalyzeRequest) (decision.Request, error) {
	date := models.NormalizeDate(s.now().UTC())
	if body.Date != "" {
		d, err := models.ParseDate(body.Date)
		if err != nil {
			return decision.Request{}, err
		}
		date = d
	}

	var m models.Matchup
	switch {
	case body.Matchup != "":
		parsed, err := models.ParseMatchup(body.Matchup, date)
		if err != nil {
			return decision.Request{}, err
		}
		m = parsed
	case body.Home != "" && body.Away != "":
		m = models.Matchup{
			Home: strings.ToUpper(strings.TrimSpace(body.Home)),
			Away: strings.ToUpper(strings.TrimSpace(body.Away)),
			Date: date,
		}
		if err := m.Validate(); err != nil {
			return decision.Request{}, err
		}
	default:
		return decision.Request{}, models.NewDataError("", "matchup or home and away are required")
	}

	home, away := body.HomeOdds, body.AwayOdds
	if home != nil && home.Team == "" {
		home.Team = m.Home
	}
	if away != nil && away.Team == "" {
		away.Team = m.Away
	}
	quotes, err := market.BuildQuotes(m, home, away, s.cfg.Devig)
	if err != nil {
		return decision.Request{}, err
	}
	return decision.Request{Matchup: m, Quotes: quotes}, nil
}

func (s *Server) analyzeError(w http.ResponseWriter, status int, message string, err error) {
	metrics.RecordAnalyzeRequest(strconv.Itoa(status))
	if errors.Is(err, service.ErrNotReady) {
		message = "no history snapshot is serving yet"
	}
	s.logger.WithError(err).WithField("status", status).Warn("Analyze request rejected")
	respondError(w, status, message)
}

func (s *Server) handleLatestScan(w http.ResponseWriter, _ *http.Request) {
	report := s.scanner.LastReport()
	if report == nil {
		respondError(w, http.StatusNotFound, "no scan has completed yet")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

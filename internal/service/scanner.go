package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/decision"
	"github.com/yourusername/courtside/internal/features"
	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/market"
	"github.com/yourusername/courtside/internal/metrics"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/repository"
	"github.com/yourusername/courtside/internal/teams"
)

// ErrNotReady is returned when no history snapshot has been built yet
var ErrNotReady = errors.New("scanner not ready: no history snapshot")

// ScannerConfig controls scan cycles
type ScannerConfig struct {
	Decision     decision.Config
	Features     features.Options
	CacheTTL     time.Duration
	BatchTimeout time.Duration
	// Refresh is the snapshot age that triggers a rebuild; zero never rebuilds
	Refresh  time.Duration
	TopPicks int
}

// scanState pairs a snapshot with the engine built over it so a scan never
// mixes generations
type scanState struct {
	snap   *Snapshot
	engine *decision.Engine
}

// Scanner runs scan cycles: it keeps a history snapshot fresh, fetches the
// day's schedule and quotes, analyzes every matchup and records the report.
type Scanner struct {
	cfg     ScannerConfig
	history HistorySource
	quotes  market.Source
	catalog *teams.Catalog
	recs    repository.RecommendationRepository

	state atomic.Pointer[scanState]
	last  atomic.Pointer[decision.Report]

	// refreshMu serializes rebuilds and guards the models the next engine is built with
	refreshMu sync.Mutex
	outcome   decision.WinProbabilityModel
	margin    decision.MarginPredictor

	logger  *logrus.Logger
	scanLog *logger.ScanLogger
	audit   *logger.AuditLogger
	now     func() time.Time
}

// NewScanner creates a scanner. margin may be nil to skip spread analysis and
// recs may be nil to skip persistence.
func NewScanner(
	cfg ScannerConfig,
	history HistorySource,
	quotes market.Source,
	catalog *teams.Catalog,
	outcome decision.WinProbabilityModel,
	margin decision.MarginPredictor,
	recs repository.RecommendationRepository,
	log *logrus.Logger,
) (*Scanner, error) {
	if history == nil || quotes == nil || catalog == nil || outcome == nil {
		return nil, errors.New("history, quotes, catalog and outcome model are required")
	}
	if err := cfg.Decision.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid decision policy: %w", err)
	}
	if err := cfg.Decision.Overrides.Validate(); err != nil {
		return nil, fmt.Errorf("invalid overrides: %w", err)
	}
	if err := cfg.Features.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feature options: %w", err)
	}
	if log == nil {
		log = logrus.New()
	}
	now := cfg.Decision.Clock
	if now == nil {
		now = time.Now
	}
	s := &Scanner{
		cfg:     cfg,
		history: history,
		quotes:  quotes,
		catalog: catalog,
		outcome: outcome,
		margin:  margin,
		recs:    recs,
		logger:  log,
		scanLog: logger.NewScanLogger(log),
		audit:   logger.NewAuditLogger(log),
		now:     now,
	}
	s.audit.LogPolicyActivated(cfg.Decision.Policy.Version, cfg.Decision.Policy.Thresholds(), len(cfg.Decision.Overrides))
	return s, nil
}

// Refresh rebuilds the history snapshot and the engine over it. The serving
// state is replaced only when both succeed.
func (s *Scanner) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	snap, err := BuildSnapshot(ctx, s.history, s.catalog, s.cfg.Features, s.cfg.CacheTTL)
	if err != nil {
		metrics.RecordSnapshot(s.history.Name(), "failure", 0, 0, time.Since(start).Seconds())
		return err
	}
	engine, err := s.newEngine(snap, s.outcome, s.margin)
	if err != nil {
		metrics.RecordSnapshot(snap.Source, "failure", 0, 0, time.Since(start).Seconds())
		return err
	}
	s.state.Store(&scanState{snap: snap, engine: engine})

	metrics.RecordSnapshot(snap.Source, "success", snap.Store.Len(), float64(snap.BuiltAt().Unix()), time.Since(start).Seconds())
	s.scanLog.LogSnapshotBuilt(snap.ID().String(), snap.Source, snap.Store.Len(), len(snap.Store.Teams()))
	return nil
}

// SwapModels replaces the serving models. Models are never reloaded in place:
// a new engine over the current snapshot is built from the new pair and stored
// in one step, so a rejected pair leaves the previous models serving. Before
// the first refresh the pair is kept for it.
func (s *Scanner) SwapModels(outcome decision.WinProbabilityModel, margin decision.MarginPredictor) error {
	if outcome == nil {
		return errors.New("outcome model is required")
	}
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if st := s.state.Load(); st != nil {
		engine, err := s.newEngine(st.snap, outcome, margin)
		if err != nil {
			return err
		}
		s.state.Store(&scanState{snap: st.snap, engine: engine})
	}
	s.outcome, s.margin = outcome, margin
	s.scanLog.WithField("margin", margin != nil).Info("Serving models swapped")
	return nil
}

func (s *Scanner) newEngine(snap *Snapshot, outcome decision.WinProbabilityModel, margin decision.MarginPredictor) (*decision.Engine, error) {
	engCfg := s.cfg.Decision
	engCfg.Clock = s.now
	engine, err := decision.NewEngine(engCfg, snap.Engineer, outcome, margin, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build decision engine: %w", err)
	}
	return engine, nil
}

// ensureFresh returns the serving state, building it on first use and
// rebuilding it once it is older than the refresh interval. A failed rebuild
// keeps the previous snapshot serving.
func (s *Scanner) ensureFresh(ctx context.Context) (*scanState, error) {
	st := s.state.Load()
	if st == nil {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
		return s.state.Load(), nil
	}
	if s.cfg.Refresh > 0 && time.Since(st.snap.BuiltAt()) >= s.cfg.Refresh {
		if err := s.Refresh(ctx); err != nil {
			s.scanLog.WithError(err).Warn("Snapshot refresh failed, serving previous snapshot")
			return st, nil
		}
		return s.state.Load(), nil
	}
	return st, nil
}

// Ready reports whether a snapshot is serving
func (s *Scanner) Ready() bool {
	return s.state.Load() != nil
}

// Snapshot returns the serving snapshot or nil
func (s *Scanner) Snapshot() *Snapshot {
	if st := s.state.Load(); st != nil {
		return st.snap
	}
	return nil
}

// Policy returns the configured decision policy
func (s *Scanner) Policy() decision.Policy {
	return s.cfg.Decision.Policy
}

// Analyze decides a single matchup against the serving snapshot
func (s *Scanner) Analyze(ctx context.Context, req decision.Request) (decision.Outcome, error) {
	st, err := s.ensureFresh(ctx)
	if err != nil {
		return decision.Outcome{}, fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	return st.engine.Analyze(ctx, req), nil
}

// Scan analyzes every scheduled matchup on date. Each matchup yields exactly
// one outcome; a missing quote only removes that matchup's market legs.
func (s *Scanner) Scan(ctx context.Context, date time.Time) (*decision.Report, error) {
	start := time.Now()
	date = models.NormalizeDate(date)

	st, err := s.ensureFresh(ctx)
	if err != nil {
		metrics.RecordScan("failure", time.Since(start).Seconds(), 0, 0, 0)
		return nil, fmt.Errorf("%w: %v", ErrNotReady, err)
	}

	matchups, err := s.quotes.Schedule(ctx, date)
	if err != nil {
		metrics.RecordScan("failure", time.Since(start).Seconds(), 0, 0, 0)
		return nil, fmt.Errorf("failed to fetch schedule for %s: %w", date.Format(models.DateLayout), err)
	}
	s.scanLog.LogScanStarted(date, len(matchups))

	reqs := s.requests(ctx, date, matchups)

	batchCtx := ctx
	if s.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, s.cfg.BatchTimeout)
		defer cancel()
	}
	outcomes := st.engine.AnalyzeBatch(batchCtx, reqs)
	report := decision.NewReport(date, st.engine.Policy(), outcomes, s.now())

	duration := time.Since(start)
	s.scanLog.LogScanCompleted(date, report.Signals, report.NoSignals, report.Failures, duration)
	metrics.RecordScan("success", duration.Seconds(), report.Signals, report.NoSignals, report.Failures)

	var signals []models.Recommendation
	for _, o := range outcomes {
		if o.Status != decision.StatusSignal {
			continue
		}
		rec := o.Recommendation
		signals = append(signals, rec)
		metrics.RecordSignal(string(rec.Side), string(rec.Confidence))
		s.audit.LogRecommendation(rec.ID.String(), rec.Matchup.Label(), string(rec.Side), rec.Edge, string(rec.Confidence), rec.CreatedAt)
	}
	if s.recs != nil && len(signals) > 0 {
		if err := s.recs.SaveScan(ctx, report.ScanID, report.PolicyVer, signals); err != nil {
			s.scanLog.WithError(err).WithField("scan_id", report.ScanID).Error("Failed to persist recommendations")
		}
	}

	for i, rec := range report.TopPicks(s.cfg.TopPicks) {
		s.scanLog.WithFields(logrus.Fields{
			"rank":       i + 1,
			"matchup":    rec.Matchup.Label(),
			"side":       rec.Side,
			"edge":       rec.Edge,
			"confidence": rec.Confidence,
		}).Info("Top pick")
	}

	s.last.Store(report)
	return report, nil
}

// requests pairs each matchup with its quotes. A quote lookup failure leaves
// the matchup with no quotes so the engine can still consider the spread.
func (s *Scanner) requests(ctx context.Context, date time.Time, matchups []models.Matchup) []decision.Request {
	reqs := make([]decision.Request, len(matchups))
	for i, m := range matchups {
		if m.Date.IsZero() {
			m.Date = date
		}
		q, err := s.quotes.Quotes(ctx, m)
		if err != nil {
			s.scanLog.WithError(err).WithField("matchup", m.Label()).Warn("Quotes unavailable, analyzing without market prices")
			q = models.MatchupQuotes{}
		}
		reqs[i] = decision.Request{Matchup: m, Quotes: q}
	}
	return reqs
}

// LastReport returns the most recent scan report or nil
func (s *Scanner) LastReport() *decision.Report {
	return s.last.Load()
}

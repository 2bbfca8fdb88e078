package decision

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/courtside/internal/features"
	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/models"
)

// FeatureBuilder produces the feature vector for one team on one date
type FeatureBuilder interface {
	Build(t features.Target) (features.Vector, error)
}

// WinProbabilityModel maps a home-perspective vector to a home win probability
type WinProbabilityModel interface {
	Predict(vec features.Vector) (float64, error)
}

// MarginPredictor maps a home-perspective vector to an expected home margin
type MarginPredictor interface {
	Predict(vec features.Vector) (float64, error)
}

// FeatureSchema is implemented by models that carry their training feature list
type FeatureSchema interface {
	Features() []string
}

// FeatureCatalog is implemented by builders that expose the features they produce
type FeatureCatalog interface {
	Names() []string
}

// Request is one matchup to analyze with whatever quotes are available
type Request struct {
	Matchup models.Matchup       `json:"matchup"`
	Quotes  models.MatchupQuotes `json:"quotes"`
}

// Engine turns matchups into recommendations. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	builder FeatureBuilder
	outcome WinProbabilityModel
	margin  MarginPredictor
	policy  Policy
	ovr     Overrides
	workers int
	now     func() time.Time
	log     *logger.DecisionLogger
}

// NewEngine creates an engine. margin may be nil, in which case the spread leg
// is skipped.
func NewEngine(cfg Config, builder FeatureBuilder, outcome WinProbabilityModel, margin MarginPredictor, log *logrus.Logger) (*Engine, error) {
	if builder == nil {
		return nil, errors.New("feature builder is required")
	}
	if outcome == nil {
		return nil, errors.New("outcome model is required")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Overrides.Validate(); err != nil {
		return nil, err
	}
	if err := checkSchema(builder, "outcome", outcome); err != nil {
		return nil, err
	}
	if margin != nil {
		if err := checkSchema(builder, "margin", margin); err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = logrus.New()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	ovr := make(Overrides, len(cfg.Overrides))
	for team, o := range cfg.Overrides {
		ovr[team] = o
	}
	return &Engine{
		builder: builder,
		outcome: outcome,
		margin:  margin,
		policy:  cfg.Policy,
		ovr:     ovr,
		workers: workers,
		now:     now,
		log:     logger.NewDecisionLogger(log),
	}, nil
}

// checkSchema rejects a model trained on features the builder does not produce.
// Builders or models that do not expose their names are not checked.
func checkSchema(builder FeatureBuilder, name string, model interface{}) error {
	cat, ok := builder.(FeatureCatalog)
	if !ok {
		return nil
	}
	schema, ok := model.(FeatureSchema)
	if !ok {
		return nil
	}
	served := make(map[string]struct{})
	for _, n := range cat.Names() {
		served[n] = struct{}{}
	}
	var missing []string
	for _, n := range schema.Features() {
		if _, ok := served[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s model: %w", name, &models.FeatureMismatchError{Missing: missing})
	}
	return nil
}

// Policy returns the active policy
func (e *Engine) Policy() Policy { return e.policy }

// Analyze decides one matchup. It never panics and never returns an error:
// failures come back as a failed Outcome carrying a no-bet recommendation.
func (e *Engine) Analyze(ctx context.Context, req Request) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic analyzing %s: %v", req.Matchup.Label(), r)
			e.log.WithField("stack", string(debug.Stack())).Debug("Recovered panic")
			out = e.failed(req.Matchup, err)
		}
		out.Duration = time.Since(start)
		e.observe(out)
	}()

	if err := ctx.Err(); err != nil {
		return e.failed(req.Matchup, err)
	}
	rec, err := e.decide(req)
	if err != nil {
		return e.failed(req.Matchup, err)
	}
	status := StatusNoSignal
	if rec.HasSignal(e.policy.SignalThreshold) {
		status = StatusSignal
	}
	e.log.LogDecision(req.Matchup.Label(), string(rec.Side), rec.Edge, rec.HomeWinProb, string(rec.Confidence))
	return Outcome{Status: status, Recommendation: rec}
}

// AnalyzeBatch decides every request concurrently and returns exactly one
// Outcome per request, in request order. Matchups not started before ctx is
// done come back failed.
func (e *Engine) AnalyzeBatch(ctx context.Context, reqs []Request) []Outcome {
	out := make([]Outcome, len(reqs))
	g := &errgroup.Group{}
	g.SetLimit(e.workers)
	for i, req := range reqs {
		g.Go(func() error {
			out[i] = e.Analyze(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Engine) failed(m models.Matchup, err error) Outcome {
	e.log.LogMatchupFailed(m.Label(), err)
	rec := models.NoBet(m, "analysis failed: "+err.Error(), e.now())
	return Outcome{Status: StatusFailed, Recommendation: rec, Err: err}
}

// decide runs build, predict, override, edge, fuse and classify for one matchup
func (e *Engine) decide(req Request) (models.Recommendation, error) {
	m := req.Matchup
	m.Date = models.NormalizeDate(m.Date)
	if err := m.Validate(); err != nil {
		return models.Recommendation{}, err
	}

	// the home vector carries the opponent's features, so one build covers both teams
	homeVec, err := e.builder.Build(features.Target{Team: m.Home, Opponent: m.Away, Date: m.Date, Home: true, Fixture: true})
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("building %s vs %s features: %w", m.Home, m.Away, err)
	}

	raw, err := e.outcome.Predict(homeVec)
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("predicting win probability: %w", err)
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return models.Recommendation{}, fmt.Errorf("outcome model returned %v", raw)
	}

	var margin *float64
	if e.margin != nil {
		v, err := e.margin.Predict(homeVec)
		switch {
		case errors.Is(err, models.ErrModelNotReady):
			e.log.WithField("matchup", m.Label()).Debug("Margin model not ready, skipping spread")
		case err != nil:
			return models.Recommendation{}, fmt.Errorf("predicting margin: %w", err)
		case math.IsNaN(v) || math.IsInf(v, 0):
			return models.Recommendation{}, fmt.Errorf("margin model returned %v", v)
		default:
			margin = &v
		}
	}

	shifted, notes := e.ovr.apply(m, raw)
	for _, team := range []string{m.Home, m.Away} {
		if ov, ok := e.ovr[team]; ok {
			e.log.LogOverrideApplied(m.Label(), team, ov.Player, ov.Penalty)
		}
	}
	homeProb, awayProb := e.policy.Clamp(shifted)

	now := e.now()
	ml := e.moneyline(m, req.Quotes, homeProb, awayProb, now)
	sp := e.spread(margin, req.Quotes.SpreadLine)

	pick := ml
	if pick.side == models.SidePass {
		pick = sp
	}

	rec := models.Recommendation{
		ID:              uuid.New(),
		Matchup:         m,
		Side:            pick.side,
		Edge:            pick.edge,
		Confidence:      e.policy.Classify(pick.edge),
		HomeWinProb:     homeProb,
		AwayWinProb:     awayProb,
		PredictedMargin: margin,
		SpreadLine:      req.Quotes.SpreadLine,
		Coverage:        sp.coverage,
		Overrides:       notes,
		CreatedAt:       now,
	}
	if pick.side == models.SidePass {
		rec.Edge = 0
		rec.Confidence = models.ConfidenceLow
	}
	rec.Rationale = rationale(rec, ml, sp)
	return rec, nil
}

// leg is the result of one market leg
type leg struct {
	side     models.BetSide
	edge     float64
	homeEdge *float64
	awayEdge *float64
	coverage *float64
	skipped  []string
}

// moneyline compares model probabilities with fresh quotes. A stale quote
// disqualifies only its own side.
func (e *Engine) moneyline(m models.Matchup, q models.MatchupQuotes, homeProb, awayProb float64, now time.Time) leg {
	l := leg{side: models.SidePass}
	l.homeEdge = e.sideEdge(m, q.Home, homeProb, now, &l)
	l.awayEdge = e.sideEdge(m, q.Away, awayProb, now, &l)

	floor := e.policy.MinMoneylineEdge - edgeEpsilon
	home, away := math.Inf(-1), math.Inf(-1)
	if l.homeEdge != nil {
		home = *l.homeEdge
	}
	if l.awayEdge != nil {
		away = *l.awayEdge
	}
	switch {
	case home >= away && home >= floor:
		l.side, l.edge = models.SideHomeMoneyline, home
	case away > home && away >= floor:
		l.side, l.edge = models.SideAwayMoneyline, away
	}
	return l
}

func (e *Engine) sideEdge(m models.Matchup, q *models.MarketQuote, prob float64, now time.Time, l *leg) *float64 {
	if q == nil {
		return nil
	}
	if err := q.Check(now, e.policy.Quotes); err != nil {
		var stale *models.StaleQuoteError
		reason := err.Error()
		if errors.As(err, &stale) {
			reason = stale.Reason
		}
		e.log.LogQuoteRejected(m.Label(), q.Team, q.Quoted(), reason)
		QuotesRejectedTotal.Inc()
		l.skipped = append(l.skipped, q.Team)
		return nil
	}
	edge := prob - q.ImpliedProbability
	return &edge
}

// spread turns predicted margin plus home-signed line into coverage. Coverage
// must strictly exceed the threshold in either direction.
func (e *Engine) spread(margin, line *float64) leg {
	l := leg{side: models.SidePass}
	if margin == nil || line == nil {
		return l
	}
	coverage := *margin + *line
	l.coverage = &coverage
	switch {
	case coverage > e.policy.MinSpreadCoverage:
		l.side, l.edge = models.SideHomeSpread, coverage/e.policy.SpreadEdgeDivisor
	case coverage < -e.policy.MinSpreadCoverage:
		l.side, l.edge = models.SideAwaySpread, -coverage/e.policy.SpreadEdgeDivisor
	}
	return l
}

func (e *Engine) observe(out Outcome) {
	DecisionsTotal.WithLabelValues(string(out.Status), string(out.Recommendation.Side)).Inc()
	DecisionLatency.Observe(out.Duration.Seconds())
	if out.Status == StatusSignal {
		SignalEdge.Observe(out.Recommendation.Edge)
	}
}

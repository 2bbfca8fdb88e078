package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/courtside/internal/database"
	"github.com/yourusername/courtside/internal/models"
)

const (
	insertRecommendationSQL = `
		INSERT INTO recommendations (id, scan_id, game_date, home, away, side, edge, confidence,
		                             home_win_prob, predicted_margin, spread_line, policy_version,
		                             rationale, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`
	selectRecommendationsSQL = `
		SELECT id, game_date, home, away, side, edge, confidence, home_win_prob,
		       predicted_margin, spread_line, rationale, created_at
		FROM recommendations
		WHERE game_date = $1
		ORDER BY created_at, home
	`
)

// PostgresRecommendationRepository implements RecommendationRepository for PostgreSQL
type PostgresRecommendationRepository struct {
	db *database.DB
}

// NewPostgresRecommendationRepository creates a new recommendation repository
func NewPostgresRecommendationRepository(db *database.DB) RecommendationRepository {
	return &PostgresRecommendationRepository{db: db}
}

// SaveScan stores one scan's recommendations atomically
func (r *PostgresRecommendationRepository) SaveScan(ctx context.Context, scanID uuid.UUID, policyVersion string, recs []models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range recs {
		batch.Queue(insertRecommendationSQL,
			rec.ID, scanID, rec.Matchup.Date, rec.Matchup.Home, rec.Matchup.Away, string(rec.Side),
			rec.Edge, string(rec.Confidence), rec.HomeWinProb, rec.PredictedMargin, rec.SpreadLine,
			policyVersion, rec.Rationale, rec.CreatedAt,
		)
	}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to save recommendations for scan %s: %w", scanID, err)
	}
	return nil
}

// ByDate returns the recommendations stored for games on date
func (r *PostgresRecommendationRepository) ByDate(ctx context.Context, date time.Time) ([]models.Recommendation, error) {
	rows, err := r.db.GetPool().Query(ctx, selectRecommendationsSQL, models.NormalizeDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []models.Recommendation
	for rows.Next() {
		var (
			rec              models.Recommendation
			side, confidence string
		)
		if err := rows.Scan(
			&rec.ID, &rec.Matchup.Date, &rec.Matchup.Home, &rec.Matchup.Away, &side, &rec.Edge,
			&confidence, &rec.HomeWinProb, &rec.PredictedMargin, &rec.SpreadLine, &rec.Rationale,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		rec.Matchup.Date = models.NormalizeDate(rec.Matchup.Date)
		rec.Side = models.BetSide(side)
		rec.Confidence = models.Confidence(confidence)
		rec.AwayWinProb = 1 - rec.HomeWinProb
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recommendations: %w", err)
	}
	return recs, nil
}

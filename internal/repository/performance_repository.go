package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/courtside/internal/database"
	"github.com/yourusername/courtside/internal/models"
)

const (
	upsertRecordSQL = `
		INSERT INTO team_games (team, game_date, opponent, is_home, result, points, assists, rebounds,
		                        steals, blocks, turnovers, fg_pct, fg3_pct, ft_pct, plus_minus)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (team, game_date) DO UPDATE SET
			opponent = EXCLUDED.opponent, is_home = EXCLUDED.is_home, result = EXCLUDED.result,
			points = EXCLUDED.points, assists = EXCLUDED.assists, rebounds = EXCLUDED.rebounds,
			steals = EXCLUDED.steals, blocks = EXCLUDED.blocks, turnovers = EXCLUDED.turnovers,
			fg_pct = EXCLUDED.fg_pct, fg3_pct = EXCLUDED.fg3_pct, ft_pct = EXCLUDED.ft_pct,
			plus_minus = EXCLUDED.plus_minus
	`
	selectRecordsSQL = `
		SELECT team, game_date, opponent, is_home, result, points, assists, rebounds,
		       steals, blocks, turnovers, fg_pct, fg3_pct, ft_pct, plus_minus
		FROM team_games
		WHERE game_date >= $1
		ORDER BY team, game_date
	`
	upsertRatingSQL = `
		INSERT INTO team_ratings (team, as_of, net_rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (team, as_of) DO UPDATE SET net_rating = EXCLUDED.net_rating
	`
	selectRatingsSQL = `SELECT team, as_of, net_rating FROM team_ratings ORDER BY team, as_of`
)

// PostgresPerformanceRepository implements PerformanceRepository for PostgreSQL
type PostgresPerformanceRepository struct {
	db *database.DB
}

// NewPostgresPerformanceRepository creates a new performance repository
func NewPostgresPerformanceRepository(db *database.DB) PerformanceRepository {
	return &PostgresPerformanceRepository{db: db}
}

// UpsertRecords writes records in one batch, replacing any stored game for the same team and day
func (r *PostgresPerformanceRepository) UpsertRecords(ctx context.Context, records []models.PerformanceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	batch := recordBatch(records)
	if err := r.sendBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("failed to upsert team games: %w", err)
	}
	return len(records), nil
}

// RecordsSince returns every stored game on or after from, ordered by team and date
func (r *PostgresPerformanceRepository) RecordsSince(ctx context.Context, from time.Time) ([]models.PerformanceRecord, error) {
	rows, err := r.db.GetPool().Query(ctx, selectRecordsSQL, models.NormalizeDate(from))
	if err != nil {
		return nil, fmt.Errorf("failed to query team games: %w", err)
	}
	defer rows.Close()

	var records []models.PerformanceRecord
	for rows.Next() {
		var rec models.PerformanceRecord
		if err := rows.Scan(
			&rec.Team, &rec.GameDate, &rec.Opponent, &rec.IsHome, &rec.Result, &rec.Points, &rec.Assists,
			&rec.Rebounds, &rec.Steals, &rec.Blocks, &rec.Turnovers, &rec.FGPct, &rec.FG3Pct, &rec.FTPct,
			&rec.PlusMinus,
		); err != nil {
			return nil, fmt.Errorf("failed to scan team game: %w", err)
		}
		rec.GameDate = models.NormalizeDate(rec.GameDate)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate team games: %w", err)
	}
	return records, nil
}

// UpsertRatings writes rating snapshots, replacing any stored value for the same team and day
func (r *PostgresPerformanceRepository) UpsertRatings(ctx context.Context, ratings []models.RatingSnapshot) (int, error) {
	if len(ratings) == 0 {
		return 0, nil
	}
	batch := ratingBatch(ratings)
	if err := r.sendBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("failed to upsert team ratings: %w", err)
	}
	return len(ratings), nil
}

// Ratings returns every stored rating snapshot ordered by team and day
func (r *PostgresPerformanceRepository) Ratings(ctx context.Context) ([]models.RatingSnapshot, error) {
	rows, err := r.db.GetPool().Query(ctx, selectRatingsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query team ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.RatingSnapshot
	for rows.Next() {
		var s models.RatingSnapshot
		if err := rows.Scan(&s.Team, &s.AsOf, &s.NetRating); err != nil {
			return nil, fmt.Errorf("failed to scan team rating: %w", err)
		}
		s.AsOf = models.NormalizeDate(s.AsOf)
		ratings = append(ratings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate team ratings: %w", err)
	}
	return ratings, nil
}

func (r *PostgresPerformanceRepository) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func recordBatch(records []models.PerformanceRecord) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(upsertRecordSQL,
			rec.Team, models.NormalizeDate(rec.GameDate), rec.Opponent, rec.IsHome, rec.Result,
			rec.Points, rec.Assists, rec.Rebounds, rec.Steals, rec.Blocks, rec.Turnovers,
			rec.FGPct, rec.FG3Pct, rec.FTPct, rec.PlusMinus,
		)
	}
	return batch
}

func ratingBatch(ratings []models.RatingSnapshot) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, s := range ratings {
		batch.Queue(upsertRatingSQL, s.Team, models.NormalizeDate(s.AsOf), s.NetRating)
	}
	return batch
}

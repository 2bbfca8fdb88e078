package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/config"
)

// Schema creates the history and recommendation tables. Every statement is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS team_games (
		team        CHAR(3)          NOT NULL,
		game_date   DATE             NOT NULL,
		opponent    CHAR(3)          NOT NULL,
		is_home     BOOLEAN          NOT NULL,
		result      CHAR(1)          NOT NULL,
		points      DOUBLE PRECISION NOT NULL DEFAULT 0,
		assists     DOUBLE PRECISION NOT NULL DEFAULT 0,
		rebounds    DOUBLE PRECISION NOT NULL DEFAULT 0,
		steals      DOUBLE PRECISION NOT NULL DEFAULT 0,
		blocks      DOUBLE PRECISION NOT NULL DEFAULT 0,
		turnovers   DOUBLE PRECISION NOT NULL DEFAULT 0,
		fg_pct      DOUBLE PRECISION NOT NULL DEFAULT 0,
		fg3_pct     DOUBLE PRECISION NOT NULL DEFAULT 0,
		ft_pct      DOUBLE PRECISION NOT NULL DEFAULT 0,
		plus_minus  DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (team, game_date)
	)`,
	`CREATE INDEX IF NOT EXISTS team_games_date_idx ON team_games (game_date)`,
	`CREATE TABLE IF NOT EXISTS team_ratings (
		team        CHAR(3)          NOT NULL,
		as_of       DATE             NOT NULL,
		net_rating  DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (team, as_of)
	)`,
	`CREATE TABLE IF NOT EXISTS recommendations (
		id               UUID PRIMARY KEY,
		scan_id          UUID             NOT NULL,
		game_date        DATE             NOT NULL,
		home             CHAR(3)          NOT NULL,
		away             CHAR(3)          NOT NULL,
		side             TEXT             NOT NULL,
		edge             DOUBLE PRECISION NOT NULL,
		confidence       TEXT             NOT NULL,
		home_win_prob    DOUBLE PRECISION NOT NULL,
		predicted_margin DOUBLE PRECISION,
		spread_line      DOUBLE PRECISION,
		policy_version   TEXT             NOT NULL,
		rationale        TEXT             NOT NULL,
		created_at       TIMESTAMPTZ      NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS recommendations_date_idx ON recommendations (game_date)`,
}

// Initialize creates a database connection pool and applies the schema
func Initialize(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	err = db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, stmt := range Schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"host":     cfg.Database.Host,
			"database": cfg.Database.Name,
			"tables":   3,
		}).Info("Database initialized")
	}
	return db, nil
}

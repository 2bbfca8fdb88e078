// Package repository persists team history and emitted recommendations in PostgreSQL.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/models"
)

// PerformanceRepository stores team game logs and rating snapshots
type PerformanceRepository interface {
	UpsertRecords(ctx context.Context, records []models.PerformanceRecord) (int, error)
	RecordsSince(ctx context.Context, from time.Time) ([]models.PerformanceRecord, error)
	UpsertRatings(ctx context.Context, ratings []models.RatingSnapshot) (int, error)
	Ratings(ctx context.Context) ([]models.RatingSnapshot, error)
}

// RecommendationRepository stores the recommendations of each scan
type RecommendationRepository interface {
	SaveScan(ctx context.Context, scanID uuid.UUID, policyVersion string, recs []models.Recommendation) error
	ByDate(ctx context.Context, date time.Time) ([]models.Recommendation, error)
}

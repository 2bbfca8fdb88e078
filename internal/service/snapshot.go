package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/features"
	"github.com/yourusername/courtside/internal/history"
	"github.com/yourusername/courtside/internal/teams"
)

// Snapshot is the read-only history and feature engineer for one scan cycle
type Snapshot struct {
	Store    *history.Store
	Engineer *features.CachedEngineer
	Source   string
}

// ID returns the snapshot identifier
func (s *Snapshot) ID() uuid.UUID { return s.Store.ID() }

// BuiltAt returns when the snapshot's store was built
func (s *Snapshot) BuiltAt() time.Time { return s.Store.BuiltAt() }

// BuildSnapshot loads history from src and wraps it in a cached feature engineer
func BuildSnapshot(ctx context.Context, src HistorySource, catalog *teams.Catalog, opts features.Options, cacheTTL time.Duration) (*Snapshot, error) {
	records, ratings, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s history: %w", src.Name(), err)
	}
	store, err := history.NewStore(records, ratings)
	if err != nil {
		return nil, fmt.Errorf("failed to build history store: %w", err)
	}
	eng, err := features.NewEngineer(store, catalog, opts)
	if err != nil {
		return nil, err
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &Snapshot{
		Store:    store,
		Engineer: features.NewCachedEngineer(eng, cacheTTL),
		Source:   src.Name(),
	}, nil
}

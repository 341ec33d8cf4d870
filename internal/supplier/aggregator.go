package supplier

import (
	"context"

	"github.com/kallenvale/circuitsage/internal/model"
)

// Aggregator is the narrow capability the recommender depends on — the
// two operations of spec.md §4.4 — so callers can substitute a fake in
// tests without spinning up an HTTP server.
type Aggregator interface {
	Search(ctx context.Context, query string, limit int) ([]*model.Component, error)
	Details(ctx context.Context, partNumber string) (*model.Component, error)
}

var _ Aggregator = (*Client)(nil)

package services

import (
	"context"

	"workshop-timer/internal/domain"
)

// ActivityService provides the work activity catalog with a local cache.
// Usage statistics come from the server; the service only ranks and caches.
type ActivityService interface {
	// List returns the catalog, optionally sorted by usage (most used first).
	List(ctx context.Context, sortByUsage bool) ([]*domain.Activity, error)

	// MostUsed returns the top activities ranked by usage count.
	MostUsed(ctx context.Context, limit int) ([]*domain.Activity, error)

	// Refresh drops the cache and re-fetches the catalog.
	Refresh(ctx context.Context) error
}

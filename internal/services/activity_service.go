package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"workshop-timer/internal/domain"
	"workshop-timer/internal/restapi"
)

// DefaultCacheTTL is how long a fetched catalog is served from memory.
const DefaultCacheTTL = 5 * time.Minute

// activityServiceImpl implements the ActivityService interface
type activityServiceImpl struct {
	client restapi.Client

	mu        sync.Mutex
	cached    []*domain.Activity
	fetchedAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewActivityService creates a new ActivityService instance
func NewActivityService(client restapi.Client) ActivityService {
	return &activityServiceImpl{
		client: client,
		ttl:    DefaultCacheTTL,
		now:    time.Now,
	}
}

// NewActivityServiceWithTTL creates an ActivityService with an explicit
// cache TTL and clock, for tests.
func NewActivityServiceWithTTL(client restapi.Client, ttl time.Duration, now func() time.Time) ActivityService {
	return &activityServiceImpl{
		client: client,
		ttl:    ttl,
		now:    now,
	}
}

// List returns the catalog, served from cache while fresh.
func (s *activityServiceImpl) List(ctx context.Context, sortByUsage bool) ([]*domain.Activity, error) {
	activities, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Activity, len(activities))
	copy(result, activities)

	if sortByUsage {
		sortByUsageDesc(result)
	} else {
		sort.Slice(result, func(i, j int) bool {
			return result[i].Name < result[j].Name
		})
	}
	return result, nil
}

// MostUsed returns the top activities by usage count. Activities that
// were never used do not make the ranking.
func (s *activityServiceImpl) MostUsed(ctx context.Context, limit int) ([]*domain.Activity, error) {
	if limit <= 0 {
		return nil, nil
	}

	activities, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	used := make([]*domain.Activity, 0, len(activities))
	for _, a := range activities {
		if a.UsageCount > 0 {
			used = append(used, a)
		}
	}
	sortByUsageDesc(used)

	if len(used) > limit {
		used = used[:limit]
	}
	return used, nil
}

// Refresh drops the cache and re-fetches the catalog.
func (s *activityServiceImpl) Refresh(ctx context.Context) error {
	activities, err := s.client.ListActivities(ctx, false)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = activities
	s.fetchedAt = s.now()
	return nil
}

// catalog returns the cached catalog, re-fetching when stale.
func (s *activityServiceImpl) catalog(ctx context.Context) ([]*domain.Activity, error) {
	s.mu.Lock()
	fresh := s.cached != nil && s.now().Sub(s.fetchedAt) < s.ttl
	cached := s.cached
	s.mu.Unlock()

	if fresh {
		return cached, nil
	}

	activities, err := s.client.ListActivities(ctx, false)
	if err != nil {
		// A stale cache beats no catalog at all when the server is away.
		if cached != nil {
			return cached, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.cached = activities
	s.fetchedAt = s.now()
	s.mu.Unlock()
	return activities, nil
}

// sortByUsageDesc ranks by usage count, breaking ties by most recent use.
func sortByUsageDesc(activities []*domain.Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		if activities[i].UsageCount != activities[j].UsageCount {
			return activities[i].UsageCount > activities[j].UsageCount
		}
		li, lj := activities[i].LastUsed, activities[j].LastUsed
		if li != nil && lj != nil && !li.Equal(*lj) {
			return li.After(*lj)
		}
		return lj == nil && li != nil
	})
}

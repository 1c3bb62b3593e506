package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop-timer/internal/domain"
	"workshop-timer/internal/errors"
	"workshop-timer/internal/restapi"
)

// catalogClient is a restapi.Client stub that only serves the catalog.
type catalogClient struct {
	mu         sync.Mutex
	activities []*domain.Activity
	err        error
	listCalls  int
}

func (c *catalogClient) ListActivities(ctx context.Context, sortByUsage bool) ([]*domain.Activity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.activities, nil
}

func (c *catalogClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listCalls
}

func (c *catalogClient) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *catalogClient) StartEntry(ctx context.Context, req restapi.StartRequest) (*domain.TimeEntry, error) {
	return nil, nil
}

func (c *catalogClient) StopEntry(ctx context.Context, entryID string, details domain.StopDetails) (*domain.TimeEntry, error) {
	return nil, nil
}

func (c *catalogClient) GetRunningEntry(ctx context.Context) (*domain.TimeEntry, error) {
	return nil, nil
}

func (c *catalogClient) AddInterruption(ctx context.Context, entryID, reason string, minutes int) (*domain.Interruption, error) {
	return nil, nil
}

func (c *catalogClient) UpdateInterruption(ctx context.Context, interruptionID string, minutes int) (*domain.Interruption, error) {
	return nil, nil
}

func (c *catalogClient) GetMostUsedActivities(ctx context.Context, limit int) ([]*domain.Activity, error) {
	return nil, nil
}

func testCatalog() []*domain.Activity {
	recent := time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC)
	older := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []*domain.Activity{
		{ID: "act-soldering", Name: "Soldering", Category: domain.CategoryFabrication, UsageCount: 12, LastUsed: &older},
		{ID: "act-polishing", Name: "Polishing", Category: domain.CategoryFabrication, UsageCount: 12, LastUsed: &recent},
		{ID: "act-invoicing", Name: "Invoicing", Category: domain.CategoryAdministration, UsageCount: 3},
		{ID: "act-waiting", Name: "Waiting for material", Category: domain.CategoryWaiting, UsageCount: 0},
	}
}

func newTestService(client *catalogClient, now func() time.Time) ActivityService {
	return NewActivityServiceWithTTL(client, 5*time.Minute, now)
}

func TestActivityService_ListSortsByName(t *testing.T) {
	client := &catalogClient{activities: testCatalog()}
	svc := newTestService(client, time.Now)

	activities, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, activities, 4)
	assert.Equal(t, "Invoicing", activities[0].Name)
	assert.Equal(t, "Polishing", activities[1].Name)
	assert.Equal(t, "Soldering", activities[2].Name)
}

func TestActivityService_ListByUsageBreaksTiesByRecency(t *testing.T) {
	client := &catalogClient{activities: testCatalog()}
	svc := newTestService(client, time.Now)

	activities, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, activities, 4)
	// Both at 12 uses; the more recently used one ranks first.
	assert.Equal(t, "act-polishing", activities[0].ID)
	assert.Equal(t, "act-soldering", activities[1].ID)
	assert.Equal(t, "act-invoicing", activities[2].ID)
}

func TestActivityService_MostUsedExcludesUnused(t *testing.T) {
	client := &catalogClient{activities: testCatalog()}
	svc := newTestService(client, time.Now)

	activities, err := svc.MostUsed(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, activities, 3, "never-used activities do not make the ranking")

	limited, err := svc.MostUsed(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "act-polishing", limited[0].ID)

	none, err := svc.MostUsed(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestActivityService_CacheServesUntilTTLExpires(t *testing.T) {
	current := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(d)
	}

	client := &catalogClient{activities: testCatalog()}
	svc := newTestService(client, now)

	_, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	_, err = svc.List(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls(), "a fresh cache serves repeat calls")

	advance(6 * time.Minute)
	_, err = svc.List(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls(), "an expired cache re-fetches")
}

func TestActivityService_StaleCacheBeatsUnreachableServer(t *testing.T) {
	current := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	client := &catalogClient{activities: testCatalog()}
	svc := NewActivityServiceWithTTL(client, time.Minute, now)

	_, err := svc.List(context.Background(), false)
	require.NoError(t, err)

	current = current.Add(10 * time.Minute)
	client.setErr(errors.NewNetworkError("list activities", nil))

	activities, err := svc.List(context.Background(), false)
	require.NoError(t, err, "a stale catalog beats none at all")
	assert.Len(t, activities, 4)
}

func TestActivityService_FetchFailureWithoutCacheSurfaces(t *testing.T) {
	client := &catalogClient{err: errors.NewNetworkError("list activities", nil)}
	svc := newTestService(client, time.Now)

	_, err := svc.List(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNetwork))
}

func TestActivityService_RefreshForcesFetch(t *testing.T) {
	client := &catalogClient{activities: testCatalog()}
	svc := newTestService(client, time.Now)

	_, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 2, client.calls())
}

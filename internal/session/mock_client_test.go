package session

import (
	"context"
	"sync"
	"time"

	"workshop-timer/internal/domain"
	"workshop-timer/internal/restapi"
)

// mockClient implements restapi.Client with configurable function
// fields and call counters.
type mockClient struct {
	mu sync.Mutex

	startFn    func(ctx context.Context, req restapi.StartRequest) (*domain.TimeEntry, error)
	stopFn     func(ctx context.Context, entryID string, details domain.StopDetails) (*domain.TimeEntry, error)
	runningFn  func(ctx context.Context) (*domain.TimeEntry, error)
	addIntFn   func(ctx context.Context, entryID, reason string, minutes int) (*domain.Interruption, error)
	updIntFn   func(ctx context.Context, interruptionID string, minutes int) (*domain.Interruption, error)
	listActFn  func(ctx context.Context, sortByUsage bool) ([]*domain.Activity, error)
	mostUsedFn func(ctx context.Context, limit int) ([]*domain.Activity, error)

	startCalls   int
	stopCalls    int
	runningCalls int
	addIntCalls  int
	updIntCalls  int
}

func (m *mockClient) StartEntry(ctx context.Context, req restapi.StartRequest) (*domain.TimeEntry, error) {
	m.mu.Lock()
	m.startCalls++
	fn := m.startFn
	m.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, req)
}

func (m *mockClient) StopEntry(ctx context.Context, entryID string, details domain.StopDetails) (*domain.TimeEntry, error) {
	m.mu.Lock()
	m.stopCalls++
	fn := m.stopFn
	m.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, entryID, details)
}

func (m *mockClient) GetRunningEntry(ctx context.Context) (*domain.TimeEntry, error) {
	m.mu.Lock()
	m.runningCalls++
	fn := m.runningFn
	m.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx)
}

func (m *mockClient) AddInterruption(ctx context.Context, entryID, reason string, minutes int) (*domain.Interruption, error) {
	m.mu.Lock()
	m.addIntCalls++
	fn := m.addIntFn
	m.mu.Unlock()
	if fn == nil {
		return &domain.Interruption{ID: "int-1", TimeEntryID: entryID, Reason: reason}, nil
	}
	return fn(ctx, entryID, reason, minutes)
}

func (m *mockClient) UpdateInterruption(ctx context.Context, interruptionID string, minutes int) (*domain.Interruption, error) {
	m.mu.Lock()
	m.updIntCalls++
	fn := m.updIntFn
	m.mu.Unlock()
	if fn == nil {
		return &domain.Interruption{ID: interruptionID, DurationMinutes: minutes}, nil
	}
	return fn(ctx, interruptionID, minutes)
}

func (m *mockClient) ListActivities(ctx context.Context, sortByUsage bool) ([]*domain.Activity, error) {
	if m.listActFn == nil {
		return nil, nil
	}
	return m.listActFn(ctx, sortByUsage)
}

func (m *mockClient) GetMostUsedActivities(ctx context.Context, limit int) ([]*domain.Activity, error) {
	if m.mostUsedFn == nil {
		return nil, nil
	}
	return m.mostUsedFn(ctx, limit)
}

func (m *mockClient) calls() (start, stop, running, addInt, updInt int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalls, m.stopCalls, m.runningCalls, m.addIntCalls, m.updIntCalls
}

// fakeClock is a controllable clock source for deterministic elapsed times.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recordingNotifier captures user-visible notices.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (n *recordingNotifier) Notify(action, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, action+": "+message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notices...)
}

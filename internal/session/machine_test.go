package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop-timer/internal/config"
	"workshop-timer/internal/domain"
	"workshop-timer/internal/errors"
	"workshop-timer/internal/restapi"
	"workshop-timer/internal/store"
	"workshop-timer/internal/validation"
)

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestMachine(t *testing.T, client *mockClient, st store.SessionStore, clock *fakeClock, notifier Notifier) *Machine {
	t.Helper()
	return New(Options{
		Client:            client,
		Store:             st,
		Notifier:          notifier,
		PollMissThreshold: 2,
		Now:               clock.Now,
	})
}

func runningEntry(id string, start time.Time) *domain.TimeEntry {
	return &domain.TimeEntry{
		ID:         id,
		OrderID:    "order-7",
		UserID:     "user-1",
		ActivityID: "act-polishing",
		StartTime:  start,
	}
}

func TestMachine_StartCreatesRunningSession(t *testing.T) {
	clock := newFakeClock(baseTime)
	client := &mockClient{
		startFn: func(ctx context.Context, req restapi.StartRequest) (*domain.TimeEntry, error) {
			entry := runningEntry("entry-1", clock.Now())
			entry.OrderID = req.OrderID
			entry.ActivityID = req.ActivityID
			return entry, nil
		},
	}
	st := newTestStore(t)
	m := newTestMachine(t, client, st, clock, nil)
	require.NoError(t, m.Reconcile(context.Background()))

	err := m.Start(context.Background(), "order-7", "act-polishing", "bench-2", "rush job")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, m.State())

	snapshot := m.Snapshot()
	assert.Equal(t, "entry-1", snapshot.EntryID)
	assert.Equal(t, "order-7", snapshot.OrderID)
	assert.Equal(t, baseTime, snapshot.StartTime)

	// The durable mirror is written synchronously with the transition.
	record, err := st.Load()
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "entry-1", record.EntryID)
	assert.Equal(t, store.StateRunning, record.State)
	assert.Equal(t, "bench-2", record.Location)
}

func TestMachine_StartRequiresOrderAndActivity(t *testing.T) {
	clock := newFakeClock(baseTime)
	client := &mockClient{}
	m := newTestMachine(t, client, newTestStore(t), clock, nil)
	require.NoError(t, m.Reconcile(context.Background()))

	err := m.Start(context.Background(), "", "", "", "")
	require.Error(t, err)

	start, _, _, _, _ := client.calls()
	assert.Equal(t, 0, start, "validation failures must not reach the server")
	assert.Equal(t, StateIdle, m.State())
}

func TestMachine_StartBeforeReconcileRejected(t *testing.T) {
	clock := newFakeClock(baseTime)
	m := newTestMachine(t, &mockClient{}, newTestStore(t), clock, nil)

	err := m.Start(context.Background(), "order-7", "act-polishing", "", "")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeConflict))
}

func TestMachine_DoubleStartCreatesExactlyOneEntry(t *testing.T) {
	clock := newFakeClock(baseTime)
	entered := make(chan struct{})
	release := make(chan struct{})
	client := &mockClient{
		startFn: func(ctx context.Context, req restapi.StartRequest) (*domain.TimeEntry, error) {
			close(entered)
			<-release
			return runningEntry("entry-1", clock.Now()), nil
		},
	}
	m := newTestMachine(t, client, newTestStore(t), clock, nil)
	require.NoError(t, m.Reconcile(context.Background()))

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- m.Start(context.Background(), "order-7", "act-polishing", "", "")
	}()
	<-entered

	// Second start while the first is still on the wire must be
	// rejected, not fired twice.
	err := m.Start(context.Background(), "order-7", "act-polishing", "", "")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeConflict))

	close(release)
	require.NoError(t, <-firstDone)

	start, _, _, _, _ := client.calls()
	assert.Equal(t, 1, start, "exactly one entry must be created")
	assert.Equal(t, StateRunning, m.State())
}

func TestMachine_StartConflictFromServerStaysIdle(t *testing.T) {
	clock := newFakeClock(baseTime)
	client := &mockClient{
		startFn: func(ctx context.Context, req restapi.StartRequest) (*domain.TimeEntry, error) {
			return nil, errors.NewConflictError("a time entry is already running for this user")
		},
	}
	m := newTestMachine(t, client, newTestStore(t), clock, nil)
	require.NoError(t, m.Reconcile(context.Background()))

	err := m.Start(context.Background(), "order-7", "act-polishing", "", "")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeConflict))
	// The existing server session is never overwritten; reconciliation
	// is the path that adopts it.
	assert.Equal(t, StateIdle, m.State())
}

func TestMachine_StartNetworkFailureEntersErrorState(t *testing.T) {
	clock := newFakeClock(baseTime)
	client := &mockClient{
		startFn: func(ctx context.Context, req restapi.StartRequest) (*domain.TimeEntry, error) {
			return nil, errors.NewNetworkError("start entry", context.DeadlineExceeded)
		},
	}
	m := newTestMachine(t, client, newTestStore(t), clock, nil)
	require.NoError(t, m.Reconcile(context.Background()))

	err := m.Start(context.Background(), "order-7", "act-polishing", "", "")
	require.Error(t, err)
	assert.Equal(t, StateError, m.State())

	require.NoError(t, m.Reset())
	assert.Equal(t, StateIdle, m.State())
}

func startRunningSession(t *testing.T, m *Machine) {
	t.Helper()
	require.NoError(t, m.Reconcile(context.Background()))
	require.NoError(t, m.Start(context.Background(), "order-7", "act-polishing", "bench-2", ""))
	require.Equal(t, StateRunning, m.State())
}

func defaultStartFn(clock *fakeClock) func(context.Context, restapi.StartRequest) (*domain.TimeEntry, error) {
	return func(ctx context.Context, req restapi.StartRequest) (*domain.TimeEntry, error) {
		return runningEntry("entry-1", clock.Now()), nil
	}
}

func TestMachine_PauseRecordsInterruptionAndFreezesClock(t *testing.T) {
	clock := newFakeClock(baseTime)
	client := &mockClient{
		startFn: defaultStartFn(clock),
		addIntFn: func(ctx context.Context, entryID, reason string, minutes int) (*domain.Interruption, error) {
			assert.Equal(t, "entry-1", entryID)
			assert.Equal(t, domain.ReasonManualPause, reason)
			assert.Equal(t, 0, minutes)
			return &domain.Interruption{ID: "int-9", TimeEntryID: entryID, Reason: reason}, nil
		},
	}
	st := newTestStore(t)
	m := newTestMachine(t, client, st, clock, nil)
	startRunningSession(t, m)

	clock.Advance(10 * time.Minute)
	require.NoError(t, m.Pause(context.Background()))
	assert.Equal(t, StatePaused, m.State())
	assert.Equal(t, 10*time.Minute, m.Elapsed())

	// Display freezes while paused; pause time is not subtracted later.
	clock.Advance(5 * time.Minute)
	assert.Equal(t, 10*time.Minute, m.Elapsed())

	record, err := st.Load()
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, store.StatePaused, record.State)
	assert.Equal(t, "int-9", record.InterruptionID)
	require.NotNil(t, record.PausedAt)
}

func TestMachine_PauseFailureKeepsSessionRunning(t *testing.T) {
	clock := newFakeClock(baseTime)
	client := &mockClient{
		startFn: defaultStartFn(clock),
		addIntFn: func(ctx context.Context, entryID, reason string, minutes int) (*domain.Interruption, error) {
			return nil, errors.NewNetworkError("add interruption", nil)
		},
	}
	m := newTestMachine(t, client, newTestStore(t), clock, nil)
	startRunningSession(t, m)

	err := m.Pause(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateRunning, m.State())
}

func TestMachine_ResumeFinalizesInterruptionDuration(t *testing.T) {
	clock := newFakeClock(baseTime)
	var finalized int
	client := &mockClient{
		startFn: defaultStartFn(clock),
		updIntFn: func(ctx context.Context, interruptionID string, minutes int) (*domain.Interruption, error) {
			assert.Equal(t, "int-1", interruptionID)
			finalized = minutes
			return &domain.Interruption{ID: interruptionID, DurationMinutes: minutes}, nil
		},
	}
	m := newTestMachine(t, client, newTestStore(t), clock, nil)
	startRunningSession(t, m)

	clock.Advance(10 * time.Minute)
	require.NoError(t, m.Pause(context.Background()))

	clock.Advance(7 * time.Minute)
	require.NoError(t, m.Resume(context.Background()))
	assert.Equal(t, StateRunning, m.State())
	assert.Equal(t, 7, finalized, "pause gap must be sent as the interruption duration")

	// Elapsed picks up from the absolute start time again.
	assert.Equal(t, 17*time.Minute, m.Elapsed())
}

func TestMachine_ResumeSurvivesFinalizationFailure(t *testing.T) {
	clock := newFakeClock(baseTime)
	client := &mockClient{
		startFn: defaultStartFn(clock),
		updIntFn: func(ctx context.Context, interruptionID string, minutes int) (*domain.Interruption, error) {
			return nil, errors.NewNetworkError("update interruption", nil)
		},
	}
	m := newTestMachine(t, client, newTestStore(t), clock, nil)
	startRunningSession(t, m)

	require.NoError(t, m.Pause(context.Background()))
	clock.Advance(time.Minute)

	// Finalizing the interruption is a follow-up, never blocking.
	require.NoError(t, m.Resume(context.Background()))
	assert.Equal(t, StateRunning, m.State())
}

func TestMachine_StopValidationRejectedLocally(t *testing.T) {
	clock := newFakeClock(baseTime)
	client := &mockClient{startFn: defaultStartFn(clock)}
	m := newTestMachine(t, client, newTestStore(t), clock, nil)
	startRunningSession(t, m)

	require.NoError(t, m.RequestStop())
	assert.Equal(t, StateStopping, m.State())

	six := 6
	_, err := m.ConfirmStop(context.Background(), domain.StopDetails{ComplexityRating: &six})
	require.Error(t, err)

	_, stop, _, _, _ := client.calls()
	assert.Equal(t, 0, stop, "out-of-range ratings must never reach the server")

	// Cancelling returns the session to its prior state without mutation.
	require.NoError(t, m.CancelStop())
	assert.Equal(t, StateRunning, m.State())
}

func TestMachine_StopWithValidRatingsTransitionsToIdle(t *testing.T) {
	clock := newFakeClock(baseTime)
	client := &mockClient{
		startFn: defaultStartFn(clock),
		stopFn: func(ctx context.Context, entryID string, details domain.StopDetails) (*domain.TimeEntry, error) {
			require.NotNil(t, details.ComplexityRating)
			require.NotNil(t, details.QualityRating)
			assert.Equal(t, 4, *details.ComplexityRating)
			assert.Equal(t, 5, *details.QualityRating)
			assert.False(t, details.ReworkRequired)

			end := clock.Now()
			minutes := 45
			entry := runningEntry(entryID, baseTime)
			entry.EndTime = &end
			entry.DurationMinutes = &minutes
			entry.ComplexityRating = details.ComplexityRating
			entry.QualityRating = details.QualityRating
			return entry, nil
		},
	}
	st := newTestStore(t)
	m := newTestMachine(t, client, st, clock, nil)
	startRunningSession(t, m)

	clock.Advance(45 * time.Minute)
	require.NoError(t, m.RequestStop())

	four, five := 4, 5
	_, err := m.ConfirmStop(context.Background(), domain.StopDetails{
		ComplexityRating: &four,
		QualityRating:    &five,
	})
	require.NoError(t, err)
	assert.Equal(t, StateIdle, m.State())

	record, err := st.Load()
	require.NoError(t, err)
	assert.Nil(t, record, "the mirror must be cleared on stop")
}

func TestMachine_ConfiguredRatingLimitsHonored(t *testing.T) {
	clock := newFakeClock(baseTime)
	client := &mockClient{startFn: defaultStartFn(clock)}

	cfg := config.NewConfig()
	cfg.Validation.RatingMax = 3
	validator := validation.NewSessionValidatorWithConfig(validation.NewValidatorWithConfig(cfg))

	m := New(Options{
		Client:            client,
		Store:             newTestStore(t),
		Validator:         validator,
		PollMissThreshold: 2,
		Now:               clock.Now,
	})
	startRunningSession(t, m)
	require.NoError(t, m.RequestStop())

	four := 4
	_, err := m.ConfirmStop(context.Background(), domain.StopDetails{ComplexityRating: &four})
	require.Error(t, err, "a rating above the configured maximum must be rejected")
	assert.Contains(t, err.Error(), "between 1 and 3")

	_, stop, _, _, _ := client.calls()
	assert.Equal(t, 0, stop)

	three := 3
	_, err = m.ConfirmStop(context.Background(), domain.StopDetails{ComplexityRating: &three})
	require.NoError(t, err)
	assert.Equal(t, StateIdle, m.State())
}

func TestMachine_StopNotFoundTreatedAsSuccessfulStop(t *testing.T) {
	clock := newFakeClock(baseTime)
	client := &mockClient{
		startFn: defaultStartFn(clock),
		stopFn: func(ctx context.Context, entryID string, details domain.StopDetails) (*domain.TimeEntry, error) {
			return nil, errors.NewNotFoundError("time entry", entryID)
		},
	}
	st := newTestStore(t)
	m := newTestMachine(t, client, st, clock, nil)
	startRunningSession(t, m)

	require.NoError(t, m.RequestStop())
	entry, err := m.ConfirmStop(context.Background(), domain.StopDetails{})
	require.NoError(t, err, "already-closed means the desired end state is reached")
	assert.Nil(t, entry)
	assert.Equal(t, StateIdle, m.State())

	record, err := st.Load()
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestMachine_StopNetworkFailureReturnsToPriorState(t *testing.T) {
	clock := newFakeClock(baseTime)
	client := &mockClient{
		startFn: defaultStartFn(clock),
		stopFn: func(ctx context.Context, entryID string, details domain.StopDetails) (*domain.TimeEntry, error) {
			return nil, errors.NewTimeoutError("stop entry", "10s")
		},
	}
	st := newTestStore(t)
	m := newTestMachine(t, client, st, clock, nil)
	startRunningSession(t, m)

	require.NoError(t, m.RequestStop())
	_, err := m.ConfirmStop(context.Background(), domain.StopDetails{})
	require.Error(t, err)

	// The close is not auto-retried: the first attempt may have
	// succeeded server-side. The session returns to its prior state.
	assert.Equal(t, StateRunning, m.State())

	record, loadErr := st.Load()
	require.NoError(t, loadErr)
	require.NotNil(t, record, "the mirror must survive a failed stop")

	_, stop, _, _, _ := client.calls()
	assert.Equal(t, 1, stop)
}

func TestMachine_PollTerminationNeedsConsecutiveMisses(t *testing.T) {
	clock := newFakeClock(baseTime)
	var serverEntry *domain.TimeEntry
	client := &mockClient{
		startFn: func(ctx context.Context, req restapi.StartRequest) (*domain.TimeEntry, error) {
			serverEntry = runningEntry("entry-1", clock.Now())
			return serverEntry, nil
		},
		runningFn: func(ctx context.Context) (*domain.TimeEntry, error) {
			return serverEntry, nil
		},
	}
	st := newTestStore(t)
	notifier := &recordingNotifier{}
	m := newTestMachine(t, client, st, clock, notifier)
	startRunningSession(t, m)

	// The entry disappears server-side (stopped from another device).
	serverEntry = nil

	m.SyncOnce(context.Background())
	assert.Equal(t, StateRunning, m.State(), "one miss must not end the session")

	m.SyncOnce(context.Background())
	assert.Equal(t, StateIdle, m.State(), "two consecutive misses end the session")

	notices := notifier.all()
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "closed elsewhere")

	record, err := st.Load()
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestMachine_PollFailureNeverForcesTransition(t *testing.T) {
	clock := newFakeClock(baseTime)
	pollErr := errors.NewNetworkError("get running entry", nil)
	client := &mockClient{
		startFn: defaultStartFn(clock),
		runningFn: func(ctx context.Context) (*domain.TimeEntry, error) {
			return nil, pollErr
		},
	}
	notifier := &recordingNotifier{}
	m := newTestMachine(t, client, newTestStore(t), clock, notifier)
	startRunningSession(t, m)

	for i := 0; i < 5; i++ {
		m.SyncOnce(context.Background())
	}
	assert.Equal(t, StateRunning, m.State())
	assert.Empty(t, notifier.all(), "poll failures are never shown to the user")
}

func TestMachine_AbandonResyncsFromServer(t *testing.T) {
	clock := newFakeClock(baseTime)
	serverEntry := runningEntry("entry-9", baseTime.Add(-30*time.Minute))
	client := &mockClient{
		runningFn: func(ctx context.Context) (*domain.TimeEntry, error) {
			return serverEntry, nil
		},
	}
	st := newTestStore(t)
	// Seed a mirror pointing at a different, long-gone entry.
	require.NoError(t, st.Save(&store.SessionRecord{
		EntryID: "entry-stale", OrderID: "order-old", ActivityID: "act-old",
		StartTime: baseTime.Add(-2 * time.Hour), State: store.StateRunning,
	}))
	m := newTestMachine(t, client, st, clock, nil)

	require.NoError(t, m.Abandon(context.Background()))
	assert.Equal(t, StateRunning, m.State())
	assert.Equal(t, "entry-9", m.Snapshot().EntryID)
}

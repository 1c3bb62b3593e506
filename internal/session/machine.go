package session

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"workshop-timer/internal/domain"
	"workshop-timer/internal/errors"
	"workshop-timer/internal/restapi"
	"workshop-timer/internal/store"
	"workshop-timer/internal/validation"
)

// State is the local session state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StatePaused   State = "paused"
	StateStopping State = "stopping"
	StateError    State = "error"
)

// Notifier receives user-visible notices about session events. Sync-poll
// failures are never routed here; only confirmed events are.
type Notifier interface {
	Notify(action, message string)
}

// NopNotifier discards all notices.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(action, message string) {}

// Snapshot is a read-only copy of the session for display.
type Snapshot struct {
	State      State
	EntryID    string
	OrderID    string
	ActivityID string
	Location   string
	Notes      string
	StartTime  time.Time
	PausedAt   *time.Time
	Elapsed    time.Duration
	LastErr    error
}

// Options configures a Machine.
type Options struct {
	Client   restapi.Client
	Store    store.SessionStore
	Logger   *zap.SugaredLogger
	Notifier Notifier

	// Validator checks start preconditions and stop ratings; defaults to
	// the built-in limits when nil. Pass a config-backed one to honor
	// configured rating and notes bounds.
	Validator *validation.SessionValidator

	TickInterval      time.Duration
	PollInterval      time.Duration
	PollMissThreshold int

	// Now is the clock source; defaults to time.Now. Tests override it.
	Now func() time.Time
}

// Machine is the authoritative local model of the timer session. It owns
// all transitions, the durable mirror, and the two background loops; all
// writes to the mirror happen inside the transition they represent.
type Machine struct {
	mu    sync.Mutex
	state State
	prior State // state to restore when leaving Stopping

	entryID        string
	orderID        string
	activityID     string
	location       string
	notes          string
	startTime      time.Time
	pausedAt       *time.Time
	interruptionID string

	inFlight   bool // a start/stop/pause call for this session is on the wire
	reconciled bool
	lastErr    error
	pollMisses int

	client    restapi.Client
	store     store.SessionStore
	log       *zap.SugaredLogger
	notifier  Notifier
	validator *validation.SessionValidator
	now       func() time.Time

	tickInterval      time.Duration
	pollInterval      time.Duration
	pollMissThreshold int

	loopsOn    bool
	onTick     func(elapsed time.Duration)
	tickCancel context.CancelFunc
	pollCancel context.CancelFunc
}

// New creates a session machine in the Idle state. Reconcile must run to
// completion before any other transition is accepted.
func New(opts Options) *Machine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	tick := opts.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}
	threshold := opts.PollMissThreshold
	if threshold < 1 {
		threshold = 2
	}
	validator := opts.Validator
	if validator == nil {
		validator = validation.NewSessionValidator()
	}

	return &Machine{
		state:             StateIdle,
		prior:             StateIdle,
		client:            opts.Client,
		store:             opts.Store,
		log:               logger,
		notifier:          notifier,
		validator:         validator,
		now:               now,
		tickInterval:      tick,
		pollInterval:      poll,
		pollMissThreshold: threshold,
	}
}

// State returns the current session state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a read-only copy of the session.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:      m.state,
		EntryID:    m.entryID,
		OrderID:    m.orderID,
		ActivityID: m.activityID,
		Location:   m.location,
		Notes:      m.notes,
		StartTime:  m.startTime,
		PausedAt:   m.pausedAt,
		Elapsed:    m.elapsedLocked(),
		LastErr:    m.lastErr,
	}
}

// Elapsed returns the elapsed session time, derived from the absolute
// start timestamp. The value freezes while paused; pause time is tracked
// via interruption records, never subtracted from the display.
func (m *Machine) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsedLocked()
}

func (m *Machine) elapsedLocked() time.Duration {
	effective := m.state
	if m.state == StateStopping {
		effective = m.prior
	}
	switch effective {
	case StateRunning:
		return m.now().Sub(m.startTime).Truncate(time.Second)
	case StatePaused:
		if m.pausedAt != nil {
			return m.pausedAt.Sub(m.startTime).Truncate(time.Second)
		}
		return m.now().Sub(m.startTime).Truncate(time.Second)
	default:
		return 0
	}
}

// Start begins a new session for the given order and activity.
// Validation failures are rejected before any network call; a session
// already running locally or server-side yields a conflict.
func (m *Machine) Start(ctx context.Context, orderID, activityID, location, notes string) error {
	if err := m.validator.ValidateStart(orderID, activityID); err != nil {
		return err
	}

	m.mu.Lock()
	if !m.reconciled {
		m.mu.Unlock()
		return errors.NewConflictError("session has not been reconciled with the server yet")
	}
	if m.inFlight {
		m.mu.Unlock()
		return errors.NewConflictError("a session operation is already in progress")
	}
	if m.state != StateIdle {
		m.mu.Unlock()
		return errors.NewConflictError("a session is already running")
	}
	m.inFlight = true
	m.mu.Unlock()

	entry, err := m.client.StartEntry(ctx, restapi.StartRequest{
		OrderID:    orderID,
		ActivityID: activityID,
		Location:   location,
		Notes:      notes,
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false

	if err != nil {
		m.lastErr = err
		if errors.IsErrorType(err, errors.ErrorTypeConflict) {
			// The server already has a running entry. Do not overwrite it;
			// reconciliation will adopt it as the current session.
			m.log.Warnw("start rejected, server has a running entry", "order_id", orderID)
			return err
		}
		m.state = StateError
		m.prior = StateIdle
		return err
	}

	m.entryID = entry.ID
	m.orderID = entry.OrderID
	m.activityID = entry.ActivityID
	m.location = location
	m.notes = notes
	m.startTime = entry.StartTime
	m.pausedAt = nil
	m.interruptionID = ""
	m.state = StateRunning
	m.lastErr = nil
	m.pollMisses = 0

	if err := m.persistLocked(); err != nil {
		// The server entry exists; losing the mirror only costs metadata
		// after a crash, reconciliation recovers the session itself.
		m.log.Errorw("failed to persist session mirror", "error", err)
	}
	m.startLoopsLocked()

	m.log.Infow("session started", "entry_id", m.entryID, "order_id", m.orderID, "activity_id", m.activityID)
	return nil
}

// Pause records an interruption against the running entry and freezes
// the clock. The entry itself stays open on the server.
func (m *Machine) Pause(ctx context.Context) error {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return errors.NewConflictError("a session operation is already in progress")
	}
	if m.state != StateRunning {
		m.mu.Unlock()
		return errors.NewInvalidInputError("state", string(m.state), "only a running session can be paused")
	}
	m.inFlight = true
	entryID := m.entryID
	m.mu.Unlock()

	interruption, err := m.client.AddInterruption(ctx, entryID, domain.ReasonManualPause, 0)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false

	if err != nil {
		// Session stays Running; the user may retry the pause.
		m.lastErr = err
		return err
	}

	pausedAt := m.now()
	m.pausedAt = &pausedAt
	m.interruptionID = interruption.ID
	m.state = StatePaused
	m.lastErr = nil

	if err := m.persistLocked(); err != nil {
		m.log.Errorw("failed to persist session mirror", "error", err)
	}
	m.stopTickLocked() // clock freezes; the sync poll keeps running

	m.log.Infow("session paused", "entry_id", m.entryID, "interruption_id", m.interruptionID)
	return nil
}

// Resume returns a paused session to Running and finalizes the pause's
// interruption with the elapsed wall-clock gap. Finalizing is a
// follow-up, not a blocking step: a failure is logged, never fatal.
func (m *Machine) Resume(ctx context.Context) error {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return errors.NewConflictError("a session operation is already in progress")
	}
	if m.state != StatePaused {
		m.mu.Unlock()
		return errors.NewInvalidInputError("state", string(m.state), "only a paused session can be resumed")
	}

	var pausedMinutes int
	if m.pausedAt != nil {
		pausedMinutes = int(math.Round(m.now().Sub(*m.pausedAt).Minutes()))
		if pausedMinutes < 0 {
			pausedMinutes = 0
		}
	}
	interruptionID := m.interruptionID

	m.pausedAt = nil
	m.state = StateRunning
	m.lastErr = nil
	if err := m.persistLocked(); err != nil {
		m.log.Errorw("failed to persist session mirror", "error", err)
	}
	m.startTickLocked()
	m.mu.Unlock()

	if interruptionID != "" {
		if _, err := m.client.UpdateInterruption(ctx, interruptionID, pausedMinutes); err != nil {
			m.log.Warnw("failed to finalize interruption duration",
				"interruption_id", interruptionID, "minutes", pausedMinutes, "error", err)
		}
	}

	m.log.Infow("session resumed", "entry_id", m.entryID, "paused_minutes", pausedMinutes)
	return nil
}

// RequestStop opens the rating-collection step without committing
// anything. Both loops are cancelled before the transition completes so
// no stale tick can fire against a closing session.
func (m *Machine) RequestStop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight {
		return errors.NewConflictError("a session operation is already in progress")
	}
	if m.state != StateRunning && m.state != StatePaused {
		return errors.NewInvalidInputError("state", string(m.state), "no session to stop")
	}

	m.prior = m.state
	m.state = StateStopping
	m.stopTickLocked()
	m.stopPollLocked()
	return nil
}

// CancelStop abandons the rating-collection step and returns the
// session to its prior state without any mutation.
func (m *Machine) CancelStop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateStopping {
		return errors.NewInvalidInputError("state", string(m.state), "no stop in progress")
	}

	m.state = m.prior
	m.startLoopsLocked()
	return nil
}

// ConfirmStop closes the entry with the collected ratings. Out-of-range
// ratings are rejected locally with no network call. On a network
// failure the session returns to its prior state and the stop must be
// retried by the user; it is never auto-retried, since the first
// attempt may in fact have succeeded server-side.
func (m *Machine) ConfirmStop(ctx context.Context, details domain.StopDetails) (*domain.TimeEntry, error) {
	if err := m.validator.ValidateStopDetails(details); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return nil, errors.NewConflictError("a session operation is already in progress")
	}
	if m.state != StateStopping {
		m.mu.Unlock()
		return nil, errors.NewInvalidInputError("state", string(m.state), "no stop in progress")
	}
	m.inFlight = true
	entryID := m.entryID
	m.mu.Unlock()

	entry, err := m.client.StopEntry(ctx, entryID, details)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false

	if err != nil {
		if errors.IsErrorType(err, errors.ErrorTypeNotFound) {
			// Already closed by another client. The desired end state is
			// reached; log the race and clear as a successful stop.
			m.log.Warnw("entry already closed on server", "entry_id", entryID)
			m.clearSessionLocked()
			return nil, nil
		}
		m.state = m.prior
		m.lastErr = err
		m.startLoopsLocked()
		return nil, err
	}

	m.clearSessionLocked()
	m.log.Infow("session stopped", "entry_id", entryID)
	return entry, nil
}

// Abandon discards the local session and re-syncs from the server. This
// is the recovery path after an error: the server stays the source of
// truth for whether anything is running.
func (m *Machine) Abandon(ctx context.Context) error {
	m.mu.Lock()
	if err := m.store.Clear(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.resetLocked()
	m.reconciled = false
	m.mu.Unlock()

	return m.Reconcile(ctx)
}

// Reset leaves the Error state without touching the server.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateError {
		return errors.NewInvalidInputError("state", string(m.state), "no error to reset")
	}
	m.state = m.prior
	m.lastErr = nil
	return nil
}

// clearSessionLocked ends the session: durable mirror removed, loops
// stopped, state back to Idle.
func (m *Machine) clearSessionLocked() {
	if err := m.store.Clear(); err != nil {
		m.log.Errorw("failed to clear session mirror", "error", err)
	}
	m.resetLocked()
}

// resetLocked returns the machine to Idle without touching the store.
func (m *Machine) resetLocked() {
	m.stopTickLocked()
	m.stopPollLocked()
	m.state = StateIdle
	m.prior = StateIdle
	m.entryID = ""
	m.orderID = ""
	m.activityID = ""
	m.location = ""
	m.notes = ""
	m.startTime = time.Time{}
	m.pausedAt = nil
	m.interruptionID = ""
	m.lastErr = nil
	m.pollMisses = 0
}

// persistLocked mirrors the session's essential fields to the durable store.
func (m *Machine) persistLocked() error {
	state := store.StateRunning
	if m.state == StatePaused {
		state = store.StatePaused
	}
	return m.store.Save(&store.SessionRecord{
		EntryID:        m.entryID,
		OrderID:        m.orderID,
		ActivityID:     m.activityID,
		Location:       m.location,
		Notes:          m.notes,
		StartTime:      m.startTime,
		State:          state,
		PausedAt:       m.pausedAt,
		InterruptionID: m.interruptionID,
	})
}

package session

import (
	"context"
	"time"
)

// EnableLoops turns on the background loops for live (watch) mode. The
// tick callback receives the elapsed duration on the 1-second cadence
// while Running. Loops start immediately if the session is active.
func (m *Machine) EnableLoops(onTick func(elapsed time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loopsOn = true
	m.onTick = onTick
	m.startLoopsLocked()
}

// DisableLoops cancels both loops, e.g. when leaving watch mode.
func (m *Machine) DisableLoops() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loopsOn = false
	m.stopTickLocked()
	m.stopPollLocked()
}

// startLoopsLocked starts the loops appropriate for the current state:
// tick and poll while Running, poll only while Paused.
func (m *Machine) startLoopsLocked() {
	switch m.state {
	case StateRunning:
		m.startTickLocked()
		m.startPollLocked()
	case StatePaused:
		m.startPollLocked()
	}
}

func (m *Machine) startTickLocked() {
	if !m.loopsOn || m.tickCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.tickCancel = cancel
	go m.runTick(ctx)
}

func (m *Machine) stopTickLocked() {
	if m.tickCancel != nil {
		m.tickCancel()
		m.tickCancel = nil
	}
}

func (m *Machine) startPollLocked() {
	if !m.loopsOn || m.pollCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.pollCancel = cancel
	go m.runPoll(ctx)
}

func (m *Machine) stopPollLocked() {
	if m.pollCancel != nil {
		m.pollCancel()
		m.pollCancel = nil
	}
}

// runTick recomputes the elapsed display on a fixed cadence. The value
// is always re-derived from the absolute start timestamp, so missed
// ticks (a suspended process, a backgrounded terminal) cannot drift it:
// the next tick that fires shows the correct value.
func (m *Machine) runTick(ctx context.Context) {
	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			if ctx.Err() != nil || m.state != StateRunning {
				m.mu.Unlock()
				continue
			}
			elapsed := m.elapsedLocked()
			onTick := m.onTick
			m.mu.Unlock()

			if onTick != nil {
				onTick(elapsed)
			}
		}
	}
}

// runPoll re-fetches the server's running-entry state on a fixed
// interval while the session is active, to detect server-side
// termination (stopped from another device, expired).
func (m *Machine) runPoll(ctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SyncOnce(ctx)
		}
	}
}

// SyncOnce performs a single sync poll against the server. A failed
// poll is logged and swallowed; it never forces a state transition and
// is never shown to the user. Only pollMissThreshold consecutive
// successful polls reporting "no entry" end the session, ruling out a
// single flaky response.
func (m *Machine) SyncOnce(ctx context.Context) {
	entry, err := m.client.GetRunningEntry(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if ctx.Err() != nil {
		// The loop was cancelled while the request was on the wire; a
		// stale result must not touch a session that already moved on.
		return
	}
	if m.state != StateRunning && m.state != StatePaused {
		return
	}

	if err != nil {
		m.log.Debugw("sync poll failed", "error", err)
		return
	}

	if entry == nil {
		m.pollMisses++
		if m.pollMisses >= m.pollMissThreshold {
			m.log.Infow("server reports no running entry, closing local session",
				"entry_id", m.entryID, "misses", m.pollMisses)
			m.clearSessionLocked()
			m.notifier.Notify("sync", "Your timer session was closed elsewhere.")
		}
		return
	}

	m.pollMisses = 0
	if entry.ID != m.entryID {
		// A different entry is running server-side; reconciliation is the
		// path that adopts it, a poll only reports.
		m.log.Warnw("server running entry differs from local session",
			"local_entry_id", m.entryID, "server_entry_id", entry.ID)
	}
}

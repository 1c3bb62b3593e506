package session

import (
	"context"

	"workshop-timer/internal/store"
)

// Reconcile resolves local vs. server session truth. The server's
// "currently running entry" answer is authoritative: a running entry is
// adopted regardless of the local mirror, and a local mirror without a
// server entry is discarded as stale. Reconcile must run to completion
// before any other transition is accepted, so a user-initiated start
// can never race a stale resume.
//
// Reconciliation is idempotent: with no intervening server change,
// running it twice yields the same session state.
func (m *Machine) Reconcile(ctx context.Context) error {
	local, err := m.store.Load()
	if err != nil {
		return err
	}
	remote, err := m.client.GetRunningEntry(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case remote != nil:
		m.entryID = remote.ID
		m.orderID = remote.OrderID
		m.activityID = remote.ActivityID
		m.startTime = remote.StartTime
		m.location = remote.Location
		m.notes = remote.Notes
		m.pausedAt = nil
		m.interruptionID = ""
		m.state = StateRunning
		m.prior = StateIdle
		m.lastErr = nil

		if local != nil && local.EntryID == remote.ID {
			// The server's echo is minimal; location/notes and the pause
			// sub-state only exist in the local mirror.
			if local.Location != "" {
				m.location = local.Location
			}
			if local.Notes != "" {
				m.notes = local.Notes
			}
			m.interruptionID = local.InterruptionID
			if local.State == store.StatePaused && local.PausedAt != nil {
				m.state = StatePaused
				m.pausedAt = local.PausedAt
			}
		} else if local != nil {
			m.log.Warnw("local session refers to a different entry, adopting server state",
				"local_entry_id", local.EntryID, "server_entry_id", remote.ID)
		}

		if err := m.persistLocked(); err != nil {
			return err
		}
		m.startLoopsLocked()
		m.log.Infow("adopted running session from server",
			"entry_id", m.entryID, "state", m.state)

	case local != nil:
		// The entry the mirror refers to was already closed server-side,
		// or its creation never committed. The mirror is stale.
		m.log.Infow("discarding stale local session", "entry_id", local.EntryID)
		if err := m.store.Clear(); err != nil {
			return err
		}
		m.resetLocked()

	default:
		m.resetLocked()
	}

	m.reconciled = true
	m.pollMisses = 0
	return nil
}

package store

import (
	"time"
)

// SessionState is the durable sub-state of a mirrored session.
type SessionState string

const (
	StateRunning SessionState = "running"
	StatePaused  SessionState = "paused"
)

// SessionRecord is the single JSON blob mirrored to durable storage on
// every state-mutating transition. One active session per profile, so
// the store holds at most one record under a fixed key.
type SessionRecord struct {
	EntryID        string       `json:"entryId"`
	OrderID        string       `json:"orderId"`
	ActivityID     string       `json:"activityId"`
	Location       string       `json:"location,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	StartTime      time.Time    `json:"startTime"`
	State          SessionState `json:"state"`
	PausedAt       *time.Time   `json:"pausedAt,omitempty"`
	InterruptionID string       `json:"interruptionId,omitempty"`
}

// SessionStore is the minimal durable key-value capability the session
// mirror needs. Any get/set/remove store satisfies the contract; the
// shipped implementation is a single-table SQLite database.
type SessionStore interface {
	// Load returns the mirrored session, or nil when none is stored.
	Load() (*SessionRecord, error)

	// Save overwrites the mirrored session.
	Save(record *SessionRecord) error

	// Clear removes the mirrored session. Clearing an empty store is not an error.
	Clear() error

	// Close releases the underlying store.
	Close() error
}

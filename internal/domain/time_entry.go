package domain

import (
	"time"
)

// TimeEntry represents a single tracked work interval.
// This is a pure domain model without transport-specific concerns;
// identifiers are opaque strings assigned by the server.
type TimeEntry struct {
	ID               string
	OrderID          string
	UserID           string
	ActivityID       string
	StartTime        time.Time
	EndTime          *time.Time // nil means still running
	DurationMinutes  *int       // present only when EndTime is set
	Location         string
	ComplexityRating *int // 1-5, settable only at stop time
	QualityRating    *int // 1-5, settable only at stop time
	ReworkRequired   bool
	Notes            string
}

// IsRunning returns true if the time entry is currently running (no end time).
func (te TimeEntry) IsRunning() bool {
	return te.EndTime == nil
}

// Stop sets the end time for the time entry.
func (te TimeEntry) Stop(endTime time.Time) TimeEntry {
	te.EndTime = &endTime
	minutes := ClampDurationMinutes(te.StartTime, endTime)
	te.DurationMinutes = &minutes
	return te
}

// Duration returns the duration of the time entry.
// If the entry is still running, it returns the duration up to now.
func (te TimeEntry) Duration() time.Duration {
	if te.EndTime == nil {
		return time.Since(te.StartTime)
	}
	return te.EndTime.Sub(te.StartTime)
}

// IsValid checks if the time entry has valid data.
func (te TimeEntry) IsValid() bool {
	if te.OrderID == "" || te.UserID == "" || te.ActivityID == "" {
		return false
	}
	if te.StartTime.IsZero() {
		return false
	}
	if te.EndTime != nil && te.EndTime.Before(te.StartTime) {
		return false
	}
	return true
}

// ClampDurationMinutes computes whole minutes between start and end,
// clamped to a minimum of zero. A negative interval indicates clock skew
// and must never be stored as a negative duration.
func ClampDurationMinutes(start, end time.Time) int {
	minutes := int(end.Sub(start).Minutes())
	if minutes < 0 {
		return 0
	}
	return minutes
}

// Interruption represents a recorded pause within a running entry.
// Creating one never closes the entry; it only records pause metadata.
type Interruption struct {
	ID              string
	TimeEntryID     string
	Reason          string
	DurationMinutes int // 0 until the pause is resolved
	Timestamp       time.Time
}

// ReasonManualPause is the interruption reason recorded for a user-initiated pause.
const ReasonManualPause = "manual_pause"

// StopDetails carries the end-of-session ratings collected when a
// session is stopped. Every field has a defined range and meaning, so
// this is a fixed record rather than an open map.
type StopDetails struct {
	ComplexityRating *int
	QualityRating    *int
	ReworkRequired   bool
	Notes            string
}

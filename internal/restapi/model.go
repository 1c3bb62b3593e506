package restapi

import (
	"time"

	"workshop-timer/internal/domain"
)

// TimeEntryPayload is the wire representation of a time entry. The stub
// server shares these payload types so client and stub cannot drift.
type TimeEntryPayload struct {
	ID               string     `json:"id"`
	OrderID          string     `json:"orderId"`
	UserID           string     `json:"userId"`
	ActivityID       string     `json:"activityId"`
	StartTime        time.Time  `json:"startTime"`
	EndTime          *time.Time `json:"endTime,omitempty"`
	DurationMinutes  *int       `json:"durationMinutes,omitempty"`
	Location         string     `json:"location,omitempty"`
	ComplexityRating *int       `json:"complexityRating,omitempty"`
	QualityRating    *int       `json:"qualityRating,omitempty"`
	ReworkRequired   bool       `json:"reworkRequired"`
	Notes            string     `json:"notes,omitempty"`
}

// InterruptionPayload is the wire representation of an interruption.
type InterruptionPayload struct {
	ID              string    `json:"id"`
	TimeEntryID     string    `json:"timeEntryId"`
	Reason          string    `json:"reason"`
	DurationMinutes int       `json:"durationMinutes"`
	Timestamp       time.Time `json:"timestamp"`
}

// ActivityPayload is the wire representation of a catalog activity.
type ActivityPayload struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Category               string     `json:"category"`
	Icon                   string     `json:"icon,omitempty"`
	Color                  string     `json:"color,omitempty"`
	UsageCount             int        `json:"usageCount"`
	AverageDurationMinutes float64    `json:"averageDurationMinutes"`
	LastUsed               *time.Time `json:"lastUsed,omitempty"`
	IsCustom               bool       `json:"isCustom"`
}

// StartRequest is the body of the start-entry operation.
type StartRequest struct {
	OrderID    string `json:"orderId"`
	ActivityID string `json:"activityId"`
	Location   string `json:"location,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// StopRequest is the body of the stop-entry operation.
type StopRequest struct {
	ComplexityRating *int   `json:"complexityRating,omitempty"`
	QualityRating    *int   `json:"qualityRating,omitempty"`
	ReworkRequired   bool   `json:"reworkRequired"`
	Notes            string `json:"notes,omitempty"`
}

// InterruptionRequest is the body of the add-interruption operation.
type InterruptionRequest struct {
	Reason          string `json:"reason"`
	DurationMinutes int    `json:"durationMinutes"`
}

// InterruptionUpdateRequest finalizes a previously recorded interruption.
type InterruptionUpdateRequest struct {
	DurationMinutes int `json:"durationMinutes"`
}

// errorResponse is the error envelope the backend uses for all failures.
type errorResponse struct {
	Error string `json:"error"`
}

// EntryToDomain converts a wire time entry to the domain model.
func EntryToDomain(p TimeEntryPayload) domain.TimeEntry {
	return domain.TimeEntry{
		ID:               p.ID,
		OrderID:          p.OrderID,
		UserID:           p.UserID,
		ActivityID:       p.ActivityID,
		StartTime:        p.StartTime,
		EndTime:          p.EndTime,
		DurationMinutes:  p.DurationMinutes,
		Location:         p.Location,
		ComplexityRating: p.ComplexityRating,
		QualityRating:    p.QualityRating,
		ReworkRequired:   p.ReworkRequired,
		Notes:            p.Notes,
	}
}

// InterruptionToDomain converts a wire interruption to the domain model.
func InterruptionToDomain(p InterruptionPayload) domain.Interruption {
	return domain.Interruption{
		ID:              p.ID,
		TimeEntryID:     p.TimeEntryID,
		Reason:          p.Reason,
		DurationMinutes: p.DurationMinutes,
		Timestamp:       p.Timestamp,
	}
}

// ActivityToDomain converts a wire activity to the domain model.
func ActivityToDomain(p ActivityPayload) domain.Activity {
	return domain.Activity{
		ID:                     p.ID,
		Name:                   p.Name,
		Category:               domain.ActivityCategory(p.Category),
		Icon:                   p.Icon,
		Color:                  p.Color,
		UsageCount:             p.UsageCount,
		AverageDurationMinutes: p.AverageDurationMinutes,
		LastUsed:               p.LastUsed,
		IsCustom:               p.IsCustom,
	}
}

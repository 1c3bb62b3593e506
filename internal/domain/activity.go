package domain

import (
	"time"
)

// ActivityCategory classifies a kind of workshop labor.
type ActivityCategory string

const (
	CategoryFabrication    ActivityCategory = "fabrication"
	CategoryAdministration ActivityCategory = "administration"
	CategoryWaiting        ActivityCategory = "waiting"
)

// IsValid reports whether the category is one of the fixed enumeration.
func (c ActivityCategory) IsValid() bool {
	switch c {
	case CategoryFabrication, CategoryAdministration, CategoryWaiting:
		return true
	}
	return false
}

// Activity is a catalog entry for a kind of work.
// Usage statistics are server-derived: the server updates them whenever
// a TimeEntry referencing the activity is closed.
type Activity struct {
	ID                     string
	Name                   string
	Category               ActivityCategory
	Icon                   string
	Color                  string
	UsageCount             int
	AverageDurationMinutes float64
	LastUsed               *time.Time
	IsCustom               bool // predefined activities cannot be deleted
}

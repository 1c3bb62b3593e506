package validation

import (
	"strings"

	"workshop-timer/internal/config"
)

// Validator provides common validation utilities
type Validator struct {
	config *config.Config
}

// NewValidator creates a new validator instance with default limits
func NewValidator() *Validator {
	return &Validator{config: nil}
}

// NewValidatorWithConfig creates a new validator instance with configuration
func NewValidatorWithConfig(cfg *config.Config) *Validator {
	return &Validator{config: cfg}
}

// IsNonEmptyString checks if a string is not empty after trimming whitespace
func (v *Validator) IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidRating checks if a rating is within the configured [min,max] range
func (v *Validator) IsValidRating(rating int) bool {
	return rating >= v.ratingMin() && rating <= v.ratingMax()
}

// IsValidNotesLength checks if free-text notes fit within the configured limit
func (v *Validator) IsValidNotesLength(notes string) bool {
	return len(notes) <= v.notesMaxLength()
}

func (v *Validator) ratingMin() int {
	if v.config != nil {
		return v.config.Validation.RatingMin
	}
	return 1
}

func (v *Validator) ratingMax() int {
	if v.config != nil {
		return v.config.Validation.RatingMax
	}
	return 5
}

func (v *Validator) notesMaxLength() int {
	if v.config != nil {
		return v.config.Validation.NotesMaxLength
	}
	return 2000
}

package validation

import (
	"fmt"

	"workshop-timer/internal/domain"
)

// SessionValidator validates timer session transitions before any
// network call is made. Rejections here never reach the server.
type SessionValidator struct {
	validator *Validator
}

// NewSessionValidator creates a new session validator
func NewSessionValidator() *SessionValidator {
	return &SessionValidator{
		validator: NewValidator(),
	}
}

// NewSessionValidatorWithConfig creates a session validator with configured limits
func NewSessionValidatorWithConfig(v *Validator) *SessionValidator {
	return &SessionValidator{validator: v}
}

// ValidateStart validates the preconditions of starting a session:
// both an order and an activity must be selected.
func (sv *SessionValidator) ValidateStart(orderID, activityID string) error {
	validationError := NewValidationError()

	if !sv.validator.IsNonEmptyString(orderID) {
		validationError.AddRequiredError("order_id")
	}
	if !sv.validator.IsNonEmptyString(activityID) {
		validationError.AddRequiredError("activity_id")
	}

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

// ValidateStopDetails validates end-of-session ratings. Ratings are
// optional, but when present they must be within the configured range.
func (sv *SessionValidator) ValidateStopDetails(details domain.StopDetails) error {
	validationError := NewValidationError()
	ratingReason := fmt.Sprintf("must be between %d and %d", sv.validator.ratingMin(), sv.validator.ratingMax())

	if details.ComplexityRating != nil && !sv.validator.IsValidRating(*details.ComplexityRating) {
		validationError.AddInvalidRangeError("complexity_rating", *details.ComplexityRating, ratingReason)
	}
	if details.QualityRating != nil && !sv.validator.IsValidRating(*details.QualityRating) {
		validationError.AddInvalidRangeError("quality_rating", *details.QualityRating, ratingReason)
	}
	if !sv.validator.IsValidNotesLength(details.Notes) {
		validationError.AddInvalidLengthError("notes", details.Notes, 0, sv.validator.notesMaxLength())
	}

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

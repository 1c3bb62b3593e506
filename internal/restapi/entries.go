package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"workshop-timer/internal/domain"
)

// StartEntry creates a new running time entry. The server enforces the
// single-running-entry invariant and answers 409 when one already exists.
func (c *HTTPClient) StartEntry(ctx context.Context, req StartRequest) (*domain.TimeEntry, error) {
	var payload TimeEntryPayload
	if _, err := c.doJSON(ctx, "start entry", http.MethodPost, "/api/v1/time-entries", req, http.StatusCreated, false, &payload); err != nil {
		return nil, err
	}

	entry := EntryToDomain(payload)
	return &entry, nil
}

// StopEntry closes a running entry, attaching the end-of-session ratings.
// Answers 404 when the entry is already closed or unknown.
func (c *HTTPClient) StopEntry(ctx context.Context, entryID string, details domain.StopDetails) (*domain.TimeEntry, error) {
	req := StopRequest{
		ComplexityRating: details.ComplexityRating,
		QualityRating:    details.QualityRating,
		ReworkRequired:   details.ReworkRequired,
		Notes:            details.Notes,
	}

	path := fmt.Sprintf("/api/v1/time-entries/%s/stop", url.PathEscape(entryID))
	var payload TimeEntryPayload
	if _, err := c.doJSON(ctx, "stop entry", http.MethodPost, path, req, http.StatusOK, false, &payload); err != nil {
		return nil, err
	}

	entry := EntryToDomain(payload)
	return &entry, nil
}

// GetRunningEntry returns the currently running entry for this user, or
// nil when none is running. "None running" is not an error; the server
// answers 204 for it.
func (c *HTTPClient) GetRunningEntry(ctx context.Context) (*domain.TimeEntry, error) {
	var payload TimeEntryPayload
	status, err := c.doJSON(ctx, "get running entry", http.MethodGet, "/api/v1/time-entries/running", nil, http.StatusOK, true, &payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}

	entry := EntryToDomain(payload)
	return &entry, nil
}

// AddInterruption records a pause against a still-open entry.
func (c *HTTPClient) AddInterruption(ctx context.Context, entryID string, reason string, durationMinutes int) (*domain.Interruption, error) {
	req := InterruptionRequest{
		Reason:          reason,
		DurationMinutes: durationMinutes,
	}

	path := fmt.Sprintf("/api/v1/time-entries/%s/interruptions", url.PathEscape(entryID))
	var payload InterruptionPayload
	if _, err := c.doJSON(ctx, "add interruption", http.MethodPost, path, req, http.StatusCreated, false, &payload); err != nil {
		return nil, err
	}

	interruption := InterruptionToDomain(payload)
	return &interruption, nil
}

// UpdateInterruption finalizes the duration of a previously recorded pause.
func (c *HTTPClient) UpdateInterruption(ctx context.Context, interruptionID string, durationMinutes int) (*domain.Interruption, error) {
	req := InterruptionUpdateRequest{
		DurationMinutes: durationMinutes,
	}

	path := fmt.Sprintf("/api/v1/interruptions/%s", url.PathEscape(interruptionID))
	var payload InterruptionPayload
	if _, err := c.doJSON(ctx, "update interruption", http.MethodPatch, path, req, http.StatusOK, false, &payload); err != nil {
		return nil, err
	}

	interruption := InterruptionToDomain(payload)
	return &interruption, nil
}

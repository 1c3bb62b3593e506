package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"workshop-timer/internal/config"
	"workshop-timer/internal/domain"
	"workshop-timer/internal/errors"
)

// Client defines the typed client for the workshop ERP time tracking API.
// It shapes requests and maps responses; it holds no local state beyond
// connection settings.
type Client interface {
	// Entry operations
	StartEntry(ctx context.Context, req StartRequest) (*domain.TimeEntry, error)
	StopEntry(ctx context.Context, entryID string, details domain.StopDetails) (*domain.TimeEntry, error)
	GetRunningEntry(ctx context.Context) (*domain.TimeEntry, error)

	// Interruption operations
	AddInterruption(ctx context.Context, entryID string, reason string, durationMinutes int) (*domain.Interruption, error)
	UpdateInterruption(ctx context.Context, interruptionID string, durationMinutes int) (*domain.Interruption, error)

	// Activity catalog operations
	ListActivities(ctx context.Context, sortByUsage bool) ([]*domain.Activity, error)
	GetMostUsedActivities(ctx context.Context, limit int) ([]*domain.Activity, error)
}

// HTTPClient implements Client against the ERP's REST endpoints.
type HTTPClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// New creates a new HTTP client from configuration.
func New(cfg *config.Config) *HTTPClient {
	return &HTTPClient{
		baseURL:   strings.TrimRight(cfg.Server.BaseURL, "/"),
		authToken: cfg.Server.AuthToken,
		httpClient: &http.Client{
			Timeout: cfg.Server.RequestTimeout,
		},
	}
}

// NewWithBaseURL creates a client against an explicit base URL, used by tests.
func NewWithBaseURL(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// doJSON performs a request with an optional JSON body and decodes the
// JSON response into out when the status matches wantStatus. A nil out
// skips decoding. okNoContent lets an operation accept 204 as a valid
// empty answer; everywhere else a 204 is as unexpected as any other
// status. HTTP error statuses are mapped onto the application error
// taxonomy; transport failures become network errors and never pretend
// the operation succeeded.
func (c *HTTPClient) doJSON(ctx context.Context, operation, method, path string, body interface{}, wantStatus int, okNoContent bool, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, errors.WrapError(err, errors.ErrorTypeNetwork, fmt.Sprintf("encode request for %s", operation))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, errors.NewNetworkError(operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// http.Client.Timeout fires without expiring the request context,
		// so the context alone cannot tell a timeout from other failures.
		var netErr net.Error
		if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
			return 0, errors.NewTimeoutError(operation, nil)
		}
		return 0, errors.NewNetworkError(operation, err)
	}
	defer resp.Body.Close()

	if okNoContent && resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if resp.StatusCode != wantStatus {
		return resp.StatusCode, c.mapErrorResponse(operation, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, errors.WrapError(err, errors.ErrorTypeNetwork, fmt.Sprintf("decode response for %s", operation))
		}
	}

	return resp.StatusCode, nil
}

// mapErrorResponse converts an HTTP error status into a typed application error.
func (c *HTTPClient) mapErrorResponse(operation string, resp *http.Response) error {
	message := fmt.Sprintf("server rejected %s", operation)
	var envelope errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
		message = envelope.Error
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return errors.NewValidationError(message, nil)
	case http.StatusNotFound:
		return errors.NewNotFoundError("time entry", message)
	case http.StatusConflict:
		return errors.NewConflictError(message)
	default:
		return errors.NewNetworkError(operation, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, message))
	}
}

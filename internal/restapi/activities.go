package restapi

import (
	"context"
	"fmt"
	"net/http"

	"workshop-timer/internal/domain"
)

// ListActivities fetches the full activity catalog. With sortByUsage the
// server orders by usage count, most used first.
func (c *HTTPClient) ListActivities(ctx context.Context, sortByUsage bool) ([]*domain.Activity, error) {
	path := "/api/v1/activities"
	if sortByUsage {
		path += "?sortByUsage=true"
	}

	var payloads []ActivityPayload
	if _, err := c.doJSON(ctx, "list activities", http.MethodGet, path, nil, http.StatusOK, false, &payloads); err != nil {
		return nil, err
	}

	activities := make([]*domain.Activity, 0, len(payloads))
	for _, p := range payloads {
		activity := ActivityToDomain(p)
		activities = append(activities, &activity)
	}
	return activities, nil
}

// GetMostUsedActivities fetches the top activities ranked by usage.
func (c *HTTPClient) GetMostUsedActivities(ctx context.Context, limit int) ([]*domain.Activity, error) {
	path := fmt.Sprintf("/api/v1/activities/most-used?limit=%d", limit)

	var payloads []ActivityPayload
	if _, err := c.doJSON(ctx, "get most used activities", http.MethodGet, path, nil, http.StatusOK, false, &payloads); err != nil {
		return nil, err
	}

	activities := make([]*domain.Activity, 0, len(payloads))
	for _, p := range payloads {
		activity := ActivityToDomain(p)
		activities = append(activities, &activity)
	}
	return activities, nil
}

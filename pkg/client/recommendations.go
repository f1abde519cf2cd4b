package client

import (
	"context"
	"fmt"
	"net/url"

	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

// RecommendationsClient exposes the recommendation endpoints.
type RecommendationsClient struct {
	client *Client
}

// RecommendResult is the body of a successful recommendation call.
type RecommendResult struct {
	Recommendations []rectypes.Recommendation `json:"recommendations"`
	Count           int                       `json:"count"`
}

// Recommend ranks validation scenarios for the given query.
func (rc *RecommendationsClient) Recommend(ctx context.Context, query rectypes.Query) (*RecommendResult, error) {
	var result RecommendResult
	if err := rc.client.post(ctx, "/api/v1/recommendations", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RecordSelection reports that the engineer picked the given scenario from a
// recommendation list, feeding the historical signal.
func (rc *RecommendationsClient) RecordSelection(ctx context.Context, scenarioID string) error {
	if scenarioID == "" {
		return fmt.Errorf("scenarioID is required")
	}
	path := fmt.Sprintf("/api/v1/recommendations/%s/selection", url.PathEscape(scenarioID))
	return rc.client.post(ctx, path, nil, nil)
}

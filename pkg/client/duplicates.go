package client

import (
	"context"
	"fmt"
	"strconv"

	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

// DuplicatesClient exposes the duplicate-detection endpoints.
type DuplicatesClient struct {
	client *Client
}

// DetectResult is the body of a successful duplicate-detection call.
type DetectResult struct {
	Groups []rectypes.DuplicateGroup `json:"groups"`
	Count  int                       `json:"count"`
}

// PairsResult is the body of a successful similar-pairs call.
type PairsResult struct {
	Pairs []rectypes.SimilarPair `json:"pairs"`
	Count int                    `json:"count"`
}

// Detect runs duplicate detection over the scenario corpus.  A zero
// SimilarityThreshold uses the server's configured default.
func (dc *DuplicatesClient) Detect(ctx context.Context, req rectypes.DedupRequest) (*DetectResult, error) {
	var result DetectResult
	if err := dc.client.post(ctx, "/api/v1/duplicates", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Pairs lists scenario pairs whose similarity meets the threshold.
func (dc *DuplicatesClient) Pairs(ctx context.Context, threshold float64) (*PairsResult, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be in [0,1], got %v", threshold)
	}
	path := "/api/v1/duplicates/pairs?threshold=" + strconv.FormatFloat(threshold, 'f', -1, 64)
	var result PairsResult
	if err := dc.client.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

func TestNewClient_ValidatesBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "valid http", baseURL: "http://localhost:8080", wantErr: false},
		{name: "valid https with trailing slash", baseURL: "https://sceniq.example.com/", wantErr: false},
		{name: "empty", baseURL: "", wantErr: true},
		{name: "bad scheme", baseURL: "ftp://example.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.baseURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotContains(t, c.baseURL, "example.com/")
		})
	}
}

func TestRecommend_RoundTrip(t *testing.T) {
	var gotQuery rectypes.Query
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/recommendations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotQuery))
		json.NewEncoder(w).Encode(RecommendResult{
			Recommendations: []rectypes.Recommendation{{ScenarioID: "SCN-0001", Score: 0.91}},
			Count:           1,
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	result, err := c.Recommendations().Recommend(context.Background(), rectypes.Query{Platform: "EV", TopK: 3})
	require.NoError(t, err)
	assert.Equal(t, "EV", gotQuery.Platform)
	assert.Equal(t, 3, gotQuery.TopK)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "SCN-0001", result.Recommendations[0].ScenarioID)
}

func TestRecordSelection_EscapesScenarioID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	require.NoError(t, c.Recommendations().RecordSelection(context.Background(), "SCN/0001"))
	assert.Equal(t, "/api/v1/recommendations/SCN%2F0001/selection", gotPath)

	assert.Error(t, c.Recommendations().RecordSelection(context.Background(), ""))
}

func TestDetect_DecodesGroups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/duplicates", r.URL.Path)
		json.NewEncoder(w).Encode(DetectResult{
			Groups: []rectypes.DuplicateGroup{{
				GroupID:          "dup-0a1b2c3d4e5f",
				MemberIDs:        []string{"SCN-0001", "SCN-0002"},
				RepresentativeID: "SCN-0002",
				MeanSimilarity:   0.94,
			}},
			Count: 1,
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	result, err := c.Duplicates().Detect(context.Background(), rectypes.DedupRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "SCN-0002", result.Groups[0].RepresentativeID)
}

func TestPairs_ValidatesThreshold(t *testing.T) {
	c, err := NewClient("http://localhost:1")
	require.NoError(t, err)

	_, err = c.Duplicates().Pairs(context.Background(), 1.5)
	assert.Error(t, err)
	_, err = c.Duplicates().Pairs(context.Background(), -0.1)
	assert.Error(t, err)
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(RecommendResult{Count: 0})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithRetryPolicy(3, time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Recommendations().Recommend(context.Background(), rectypes.Query{Platform: "EV"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"code": "REC_001", "message": "platform is required"})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithRetryPolicy(3, time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Recommendations().Recommend(context.Background(), rectypes.Query{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "REC_001", apiErr.Code)
	assert.True(t, apiErr.IsBadRequest())
	assert.Equal(t, int32(1), calls.Load())
}

func TestOptions_Apply(t *testing.T) {
	hc := &http.Client{Timeout: time.Second}
	c, err := NewClient("http://localhost:8080",
		WithHTTPClient(hc),
		WithUserAgent("sceniq-ci/1.0"),
		WithoutRetries(),
	)
	require.NoError(t, err)
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, "sceniq-ci/1.0", c.userAgent)
	assert.Equal(t, 0, c.retryMax)
}

func TestOptions_RetryPolicyIgnoresInvalidValues(t *testing.T) {
	c, err := NewClient("http://localhost:8080",
		WithRetryPolicy(-1, 0, 0),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, c.retryMax)
	assert.Equal(t, 500*time.Millisecond, c.retryWaitMin)

	c, err = NewClient("http://localhost:8080",
		WithRetryPolicy(5, 100*time.Millisecond, 50*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, 5, c.retryMax)
	assert.Equal(t, 100*time.Millisecond, c.retryWaitMin)
	assert.Equal(t, 5*time.Second, c.retryWaitMax)
}

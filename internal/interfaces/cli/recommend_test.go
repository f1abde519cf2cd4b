package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

func recommendServer(t *testing.T, recs []rectypes.Recommendation) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/recommendations":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"recommendations": recs,
				"count":           len(recs),
			})
		case "/api/v1/recommendations/SCN-0042/selection":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRecommendCmd_TextOutput(t *testing.T) {
	srv := recommendServer(t, []rectypes.Recommendation{{
		ScenarioID: "SCN-0001",
		Score:      0.873,
		Breakdown:  rectypes.ScoreBreakdown{Semantic: 0.9, Graph: 0.5, Rule: 1.0, Historical: 0.5},
		RulesFired: []string{"platform EV requires HV isolation test"},
	}})

	out, err := runCommand(t, NewRecommendCmd(), testCLIContext(t, srv.URL, "text"),
		"--platform", "EV", "--system", "Battery")
	require.NoError(t, err)
	assert.Contains(t, out, "SCN-0001 scored 0.873")
	assert.Contains(t, out, "platform EV requires HV isolation test")
}

func TestRecommendCmd_TableOutput(t *testing.T) {
	srv := recommendServer(t, []rectypes.Recommendation{
		{ScenarioID: "SCN-0001", Score: 0.9},
		{ScenarioID: "SCN-0002", Score: 0.8},
	})

	out, err := runCommand(t, NewRecommendCmd(), testCLIContext(t, srv.URL, "table"),
		"--platform", "EV")
	require.NoError(t, err)
	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "SCN-0001")
	assert.Contains(t, out, "SCN-0002")
}

func TestRecommendCmd_JSONOutput(t *testing.T) {
	srv := recommendServer(t, []rectypes.Recommendation{{ScenarioID: "SCN-0001", Score: 0.9}})

	out, err := runCommand(t, NewRecommendCmd(), testCLIContext(t, srv.URL, "json"),
		"--platform", "EV")
	require.NoError(t, err)

	var decoded recommendResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 1, decoded.Count)
}

func TestRecommendCmd_RequiresPlatform(t *testing.T) {
	srv := recommendServer(t, nil)

	_, err := runCommand(t, NewRecommendCmd(), testCLIContext(t, srv.URL, "text"))
	assert.Error(t, err)
}

func TestRecommendCmd_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"code": "REC_001", "message": "platform is required"})
	}))
	t.Cleanup(srv.Close)

	_, err := runCommand(t, NewRecommendCmd(), testCLIContext(t, srv.URL, "text"),
		"--platform", "EV")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REC_001")
}

func TestRecommendSelectCmd(t *testing.T) {
	srv := recommendServer(t, nil)

	out, err := runCommand(t, NewRecommendCmd(), testCLIContext(t, srv.URL, "text"),
		"select", "SCN-0042")
	require.NoError(t, err)
	assert.Contains(t, out, "recorded selection of SCN-0042")
}

// Package recommend defines the wire-level types shared by the HTTP API, the
// CLI, and the Go client for scenario recommendation and duplicate detection.
package recommend

import "fmt"

// Signal names the four ensemble signals.  The names appear verbatim in API
// responses (breakdown keys, unavailable_signals) and metric labels.
type Signal string

const (
	SignalSemantic   Signal = "semantic"
	SignalGraph      Signal = "graph"
	SignalRule       Signal = "rule"
	SignalHistorical Signal = "historical"
)

// Query describes the vehicle context a caller wants validation scenarios
// for.  Platform is required; everything else is optional.
type Query struct {
	// Platform is the powertrain platform, e.g. "EV", "HEV", "ICE".
	Platform string `json:"platform"`

	// Systems lists the vehicle systems under test, e.g. "Battery", "ADAS".
	Systems []string `json:"systems,omitempty"`

	// Components lists the concrete components under test.
	Components []string `json:"components,omitempty"`

	// Standards lists regulatory standards the caller must satisfy.
	Standards []string `json:"standards,omitempty"`

	// Description optionally augments the semantic signal; when empty a
	// textual rendering of the structured fields is embedded instead.
	Description string `json:"description,omitempty"`

	// CandidateIDs restricts scoring to an explicit scenario set.  When
	// empty the engine selects candidates itself.
	CandidateIDs []string `json:"candidate_ids,omitempty"`

	// TopK bounds the number of returned recommendations.  Zero means the
	// server default.
	TopK int `json:"top_k,omitempty"`
}

// ScoreBreakdown carries the per-signal contributions of a recommendation,
// each in [0, 1] before weighting.
type ScoreBreakdown struct {
	Semantic   float64 `json:"semantic"`
	Graph      float64 `json:"graph"`
	Rule       float64 `json:"rule"`
	Historical float64 `json:"historical"`
}

// Recommendation is a single scored scenario in a recommendation response.
type Recommendation struct {
	ScenarioID   string         `json:"scenario_id"`
	ScenarioName string         `json:"scenario_name,omitempty"`
	Category     string         `json:"category,omitempty"`
	Score        float64        `json:"score"`
	Breakdown    ScoreBreakdown `json:"breakdown"`

	// CostEstimate, DurationHours, and ComplexityScore carry the scored
	// scenario's resource estimates so callers can plan without a second
	// lookup.
	CostEstimate    float64 `json:"cost_estimate"`
	DurationHours   float64 `json:"duration_hours"`
	ComplexityScore int     `json:"complexity_score"`

	// UnavailableSignals lists signals that degraded to zero because their
	// backing store could not be reached.
	UnavailableSignals []Signal `json:"unavailable_signals,omitempty"`

	// RulesFired lists human-readable descriptions of the rule predicates
	// that matched for this scenario.
	RulesFired []string `json:"rules_fired,omitempty"`
}

// Explain renders a recommendation as a short human-readable report.
func (r Recommendation) Explain() string {
	s := fmt.Sprintf("%s scored %.3f (semantic %.3f, graph %.3f, rule %.3f, historical %.3f)",
		r.ScenarioID, r.Score,
		r.Breakdown.Semantic, r.Breakdown.Graph, r.Breakdown.Rule, r.Breakdown.Historical)
	for _, rule := range r.RulesFired {
		s += "\n  - " + rule
	}
	for _, sig := range r.UnavailableSignals {
		s += fmt.Sprintf("\n  ! %s signal unavailable, scored 0", sig)
	}
	return s
}

// DuplicateGroup is a set of scenarios judged to validate the same thing.
type DuplicateGroup struct {
	GroupID string `json:"group_id"`

	// MemberIDs lists every scenario in the group, sorted ascending.
	MemberIDs []string `json:"member_ids"`

	// RepresentativeID is the member recommended to keep: the lowest
	// execution cost, ties broken by ID.
	RepresentativeID string `json:"representative_id"`

	// MeanSimilarity is the mean pairwise cosine similarity of the members.
	MeanSimilarity float64 `json:"mean_similarity"`
}

// SimilarPair is a single scenario pair above the similarity threshold.
type SimilarPair struct {
	ScenarioA  string  `json:"scenario_a"`
	ScenarioB  string  `json:"scenario_b"`
	Similarity float64 `json:"similarity"`
}

// DedupRequest carries optional overrides for a duplicate-detection run.
type DedupRequest struct {
	// Threshold overrides the configured similarity threshold when non-zero.
	Threshold float64 `json:"threshold,omitempty"`
}

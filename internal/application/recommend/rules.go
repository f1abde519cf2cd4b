package recommend

import (
	"fmt"
	"strings"

	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

// Rule weights.  The rule score is the weighted mean of the rule degrees, so
// the weights express relative importance and need not sum to any value.
const (
	weightPlatform   = 0.3
	weightRegulatory = 0.4
	weightSystem     = 0.2
	weightComponent  = 0.1
)

// platformRules maps platform → system → regulatory standards a validation
// programme on that combination is expected to cover.  The table drives the
// regulatory-applicability rule when the caller does not name standards
// explicitly.
var platformRules = map[scenario.Platform]map[string][]string{
	scenario.PlatformEV: {
		"Battery":    {"UNECE_R100", "ISO_6469", "SAE_J2929"},
		"Powertrain": {"ISO_8854", "SAE_J1772"},
		"ADAS":       {"UNECE_R157", "ISO_26262"},
	},
	scenario.PlatformHEV: {
		"Battery":    {"UNECE_R100", "ISO_6469"},
		"Powertrain": {"ISO_8854", "UNECE_R83"},
		"ADAS":       {"UNECE_R157", "ISO_26262"},
	},
	scenario.PlatformICE: {
		"Powertrain": {"UNECE_R83", "ISO_8854"},
		"Emissions":  {"UNECE_R83", "EU_2017_1151"},
		"ADAS":       {"UNECE_R157", "ISO_26262"},
	},
}

// rule is one weighted predicate over a query/scenario pair.  evaluate
// returns a degree in [0, 1] and, when the degree is positive, a
// human-readable description of what matched.
type rule struct {
	name     string
	weight   float64
	evaluate func(q rectypes.Query, s *scenario.Scenario) (float64, string)
}

// RuleEngine scores scenarios against a query with weighted domain rules
// and reports which rules fired for explainability.
type RuleEngine struct {
	rules []rule

	// overrides replaces the built-in platform rules table when non-nil.
	overrides map[scenario.Platform]map[string][]string
}

// RuleEngineOption customises a RuleEngine.
type RuleEngineOption func(*RuleEngine)

// WithPlatformRules replaces the built-in platform → system → standards
// table, for deployments with bespoke regulatory scopes.
func WithPlatformRules(table map[scenario.Platform]map[string][]string) RuleEngineOption {
	return func(e *RuleEngine) { e.overrides = table }
}

// NewRuleEngine constructs the standard four-rule engine.
func NewRuleEngine(opts ...RuleEngineOption) *RuleEngine {
	e := &RuleEngine{}
	for _, opt := range opts {
		opt(e)
	}
	e.rules = []rule{
		{name: "platform_compatibility", weight: weightPlatform, evaluate: e.platformCompatibility},
		{name: "regulatory_applicability", weight: weightRegulatory, evaluate: e.regulatoryApplicability},
		{name: "system_overlap", weight: weightSystem, evaluate: e.systemOverlap},
		{name: "component_overlap", weight: weightComponent, evaluate: e.componentOverlap},
	}
	return e
}

// Score evaluates all rules and returns the normalised score in [0, 1]
// together with descriptions of the rules that fired.
func (e *RuleEngine) Score(q rectypes.Query, s *scenario.Scenario) (float64, []string) {
	var weighted, total float64
	var fired []string

	for _, r := range e.rules {
		degree, desc := r.evaluate(q, s)
		if degree < 0 {
			degree = 0
		} else if degree > 1 {
			degree = 1
		}
		weighted += r.weight * degree
		total += r.weight
		if degree > 0 && desc != "" {
			fired = append(fired, desc)
		}
	}

	if total == 0 {
		return 0, nil
	}
	return weighted / total, fired
}

func (e *RuleEngine) table() map[scenario.Platform]map[string][]string {
	if e.overrides != nil {
		return e.overrides
	}
	return platformRules
}

// platformCompatibility fires when the scenario's applicable-platform set
// contains the query platform, or when the scenario is platform-agnostic.
func (e *RuleEngine) platformCompatibility(q rectypes.Query, s *scenario.Scenario) (float64, string) {
	qp := scenario.Platform(strings.ToUpper(strings.TrimSpace(q.Platform)))
	if !s.AppliesTo(qp) {
		return 0, ""
	}
	for _, ap := range s.ApplicablePlatforms {
		if strings.EqualFold(string(ap), string(qp)) {
			return 1, fmt.Sprintf("platform %s is compatible", qp)
		}
	}
	return 1, "applies to all platforms"
}

// regulatoryApplicability measures how well the scenario's standards cover
// the standards expected for the query.  Explicit query standards win;
// otherwise the expectation comes from the platform rules table for the
// queried systems.
func (e *RuleEngine) regulatoryApplicability(q rectypes.Query, s *scenario.Scenario) (float64, string) {
	expected := q.Standards
	if len(expected) == 0 {
		bySystem, ok := e.table()[scenario.Platform(strings.ToUpper(q.Platform))]
		if !ok {
			return 0, ""
		}
		seen := make(map[string]bool)
		for _, sys := range q.Systems {
			for _, std := range bySystem[canonicalSystem(sys)] {
				if !seen[std] {
					seen[std] = true
					expected = append(expected, std)
				}
			}
		}
	}
	if len(expected) == 0 {
		return 0, ""
	}

	matched := intersect(expected, s.RegulatoryStandards)
	if len(matched) == 0 {
		return 0, ""
	}
	return float64(len(matched)) / float64(len(expected)),
		fmt.Sprintf("covers standards %s", strings.Join(matched, ", "))
}

// systemOverlap measures the fraction of queried systems the scenario
// exercises.
func (e *RuleEngine) systemOverlap(q rectypes.Query, s *scenario.Scenario) (float64, string) {
	if len(q.Systems) == 0 {
		return 0, ""
	}
	matched := intersect(q.Systems, s.TargetSystems)
	if len(matched) == 0 {
		return 0, ""
	}
	return float64(len(matched)) / float64(len(q.Systems)),
		fmt.Sprintf("exercises systems %s", strings.Join(matched, ", "))
}

// componentOverlap measures the fraction of queried components the scenario
// exercises.
func (e *RuleEngine) componentOverlap(q rectypes.Query, s *scenario.Scenario) (float64, string) {
	if len(q.Components) == 0 {
		return 0, ""
	}
	matched := intersect(q.Components, s.TargetComponents)
	if len(matched) == 0 {
		return 0, ""
	}
	return float64(len(matched)) / float64(len(q.Components)),
		fmt.Sprintf("exercises components %s", strings.Join(matched, ", "))
}

// canonicalSystem normalises a system name to the capitalisation used by the
// platform rules table.
func canonicalSystem(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if strings.EqualFold(s, "ADAS") {
		return "ADAS"
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// intersect returns the members of want present in have, case-insensitively,
// preserving want's order and capitalisation.
func intersect(want, have []string) []string {
	haveSet := make(map[string]bool, len(have))
	for _, h := range have {
		haveSet[strings.ToLower(strings.TrimSpace(h))] = true
	}
	var out []string
	for _, w := range want {
		if haveSet[strings.ToLower(strings.TrimSpace(w))] {
			out = append(out, w)
		}
	}
	return out
}

package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

func batteryScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	s, err := scenario.New("SCN-0001", "HV battery abuse", "Overcharge the HV battery pack",
		scenario.CategorySafety, scenario.PlatformEV)
	require.NoError(t, err)
	s.TargetSystems = []string{"Battery"}
	s.TargetComponents = []string{"HV_Battery", "BMS"}
	s.RegulatoryStandards = []string{"UNECE_R100", "ISO_6469"}
	return s
}

func TestRuleEngine_FullMatch(t *testing.T) {
	e := NewRuleEngine()
	q := rectypes.Query{
		Platform:   "EV",
		Systems:    []string{"Battery"},
		Components: []string{"HV_Battery", "BMS"},
	}

	score, fired := e.Score(q, batteryScenario(t))

	// platform 1.0, regulatory 2/3 (R100+6469 of the three expected EV
	// battery standards), system 1.0, component 1.0:
	// (0.3 + 0.4*2/3 + 0.2 + 0.1) / 1.0
	assert.InDelta(t, 0.8666, score, 1e-3)
	assert.Len(t, fired, 4)
	assert.Contains(t, fired[0], "platform EV")
}

func TestRuleEngine_NoMatch(t *testing.T) {
	e := NewRuleEngine()
	q := rectypes.Query{
		Platform:   "ICE",
		Systems:    []string{"Emissions"},
		Components: []string{"Catalyst"},
	}

	score, fired := e.Score(q, batteryScenario(t))
	assert.Zero(t, score)
	assert.Empty(t, fired)
}

func TestRuleEngine_PartialSystemOverlap(t *testing.T) {
	e := NewRuleEngine()
	q := rectypes.Query{
		Platform: "HEV",
		Systems:  []string{"Battery", "Powertrain"},
	}

	s := batteryScenario(t)
	s.ApplicablePlatforms = []scenario.Platform{scenario.PlatformHEV}

	score, fired := e.Score(q, s)
	// platform 1.0; regulatory: HEV expects R100, 6469, 8854, R83 → 2/4
	// matched; system 1/2; component rule skipped (no query components).
	assert.InDelta(t, (0.3+0.4*0.5+0.2*0.5)/1.0, score, 1e-9)
	assert.Len(t, fired, 3)
}

func TestRuleEngine_ExplicitStandardsOverrideTable(t *testing.T) {
	e := NewRuleEngine()
	q := rectypes.Query{
		Platform:  "EV",
		Standards: []string{"ISO_6469"},
	}

	score, fired := e.Score(q, batteryScenario(t))
	// platform 1.0 + regulatory 1/1; system and component rules skipped.
	assert.InDelta(t, (0.3+0.4)/1.0, score, 1e-9)
	require.Len(t, fired, 2)
	assert.Contains(t, fired[1], "ISO_6469")
}

func TestRuleEngine_MultiPlatformScenarioMatchesEachPlatform(t *testing.T) {
	e := NewRuleEngine()

	s := batteryScenario(t)
	s.ApplicablePlatforms = []scenario.Platform{scenario.PlatformEV, scenario.PlatformHEV}

	q := rectypes.Query{Platform: "HEV", Systems: []string{"Battery"}}
	score, fired := e.Score(q, s)
	// platform 1.0, regulatory 2/2 (R100 and 6469 are the full HEV battery
	// expectation), system 1.0.
	assert.InDelta(t, (0.3+0.4+0.2)/1.0, score, 1e-9)
	assert.Contains(t, fired[0], "platform HEV")

	q.Platform = "EV"
	score, fired = e.Score(q, s)
	assert.Contains(t, fired[0], "platform EV")
	assert.GreaterOrEqual(t, score, 0.3/1.0)

	q.Platform = "ICE"
	score, fired = e.Score(q, s)
	for _, f := range fired {
		assert.NotContains(t, f, "platform")
	}
	assert.Less(t, score, 0.3)
}

func TestRuleEngine_PlatformAgnosticScenarioAlwaysCompatible(t *testing.T) {
	e := NewRuleEngine()

	s := batteryScenario(t)
	s.ApplicablePlatforms = []scenario.Platform{scenario.PlatformAll}

	for _, p := range []string{"EV", "HEV", "ICE"} {
		q := rectypes.Query{Platform: p}
		score, fired := e.Score(q, s)
		assert.InDelta(t, 0.3/1.0, score, 1e-9, "platform %s", p)
		require.Len(t, fired, 1)
		assert.Equal(t, "applies to all platforms", fired[0])
	}
}

func TestRuleEngine_CaseInsensitiveMatching(t *testing.T) {
	e := NewRuleEngine()
	q := rectypes.Query{
		Platform: "ev",
		Systems:  []string{"battery"},
	}

	score, _ := e.Score(q, batteryScenario(t))
	assert.Greater(t, score, 0.0)
}

func TestRuleEngine_UnknownPlatformScoresZeroRegulatory(t *testing.T) {
	e := NewRuleEngine()
	q := rectypes.Query{Platform: "HOVERCRAFT", Systems: []string{"Battery"}}

	score, fired := e.Score(q, batteryScenario(t))
	// Only the system overlap rule can fire.
	assert.InDelta(t, 0.2/1.0, score, 1e-9)
	assert.Len(t, fired, 1)
}

func TestRuleEngine_PlatformRulesOverride(t *testing.T) {
	table := map[scenario.Platform]map[string][]string{
		scenario.PlatformEV: {"Battery": {"CUSTOM_STD"}},
	}
	e := NewRuleEngine(WithPlatformRules(table))

	s := batteryScenario(t)
	s.RegulatoryStandards = []string{"CUSTOM_STD"}

	q := rectypes.Query{Platform: "EV", Systems: []string{"Battery"}}
	score, fired := e.Score(q, s)

	assert.InDelta(t, (0.3+0.4+0.2)/1.0, score, 1e-9)
	assert.Contains(t, fired[1], "CUSTOM_STD")
}

func TestRuleEngine_ScoreStaysInUnitInterval(t *testing.T) {
	e := NewRuleEngine()
	q := rectypes.Query{
		Platform:   "EV",
		Systems:    []string{"Battery", "ADAS"},
		Components: []string{"HV_Battery", "BMS", "Radar"},
		Standards:  []string{"UNECE_R100", "ISO_6469"},
	}

	score, _ := e.Score(q, batteryScenario(t))
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

type mockRepo struct {
	saved map[string]*scenario.Scenario
	err   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{saved: map[string]*scenario.Scenario{}}
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*scenario.Scenario, error) {
	if s, ok := m.saved[id]; ok {
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeScenarioNotFound, "scenario not found").WithDetail("id=" + id)
}

func (m *mockRepo) GetByIDs(_ context.Context, _ []string) ([]*scenario.Scenario, error) {
	return nil, nil
}

func (m *mockRepo) List(_ context.Context, _ scenario.Filter) ([]*scenario.Scenario, error) {
	return nil, nil
}

func (m *mockRepo) ListAll(_ context.Context) ([]*scenario.Scenario, error) { return nil, nil }

func (m *mockRepo) Save(_ context.Context, s *scenario.Scenario) error {
	if m.err != nil {
		return m.err
	}
	m.saved[s.ID] = s
	return nil
}

type mockPublisher struct {
	events []scenario.DomainEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, events ...scenario.DomainEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, events...)
	return nil
}

func validInput() ScenarioInput {
	return ScenarioInput{
		ID:                  "SCN-0042",
		Name:                "HV battery overcharge abuse",
		Description:         "Overcharge the HV battery pack beyond BMS cutoff",
		Category:            "safety",
		Platforms:           []string{"EV", "HEV"},
		TargetSystems:       []string{"Battery"},
		TargetComponents:    []string{"HV_Battery", "BMS"},
		RegulatoryStandards: []string{"UNECE_R100"},
		CostEstimate:        9000,
		DurationHours:       36,
		ComplexityScore:     8,
	}
}

func TestCreate_SavesAndPublishesCreationEvent(t *testing.T) {
	repo := newMockRepo()
	pub := &mockPublisher{}
	svc := NewService(Deps{Repo: repo, Publisher: pub})

	sc, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, scenario.CategorySafety, sc.Category)
	assert.Equal(t, []scenario.Platform{scenario.PlatformEV, scenario.PlatformHEV}, sc.ApplicablePlatforms)
	assert.Equal(t, 8, sc.ComplexityScore)
	require.Contains(t, repo.saved, "SCN-0042")

	require.Len(t, pub.events, 1)
	changed, ok := pub.events[0].(scenario.ChangedEvent)
	require.True(t, ok)
	assert.Equal(t, "created", changed.Change)
	assert.Equal(t, sc.ContentHash(), changed.ContentHash)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	svc := NewService(Deps{Repo: newMockRepo()})
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*ScenarioInput)
	}{
		{"bad category", func(in *ScenarioInput) { in.Category = "vibes" }},
		{"bad platform", func(in *ScenarioInput) { in.Platforms = []string{"WARP"} }},
		{"no platforms", func(in *ScenarioInput) { in.Platforms = nil }},
		{"empty description", func(in *ScenarioInput) { in.Description = "" }},
		{"negative cost", func(in *ScenarioInput) { in.CostEstimate = -1 }},
		{"complexity out of range", func(in *ScenarioInput) { in.ComplexityScore = 42 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Create(ctx, in)
			assert.Error(t, err)
		})
	}
}

func TestCreate_PlatformAgnosticScenario(t *testing.T) {
	svc := NewService(Deps{Repo: newMockRepo()})

	in := validInput()
	in.Platforms = []string{"all"}
	sc, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, sc.AppliesTo(scenario.PlatformICE))
}

func TestCreate_PublishFailureDoesNotFailWrite(t *testing.T) {
	repo := newMockRepo()
	pub := &mockPublisher{err: errors.New(errors.ErrCodeMessagingError, "broker down")}
	svc := NewService(Deps{Repo: repo, Publisher: pub})

	_, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.Contains(t, repo.saved, "SCN-0042")
}

func TestUpdateDescription_PublishesUpdateEvent(t *testing.T) {
	repo := newMockRepo()
	pub := &mockPublisher{}
	svc := NewService(Deps{Repo: repo, Publisher: pub})

	sc, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	oldHash := sc.ContentHash()
	pub.events = nil

	updated, err := svc.UpdateDescription(context.Background(), "SCN-0042", "Overdischarge the pack below cell minimum")
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, updated.ContentHash())

	require.Len(t, pub.events, 1)
	changed := pub.events[0].(scenario.ChangedEvent)
	assert.Equal(t, "updated", changed.Change)
	assert.Equal(t, updated.ContentHash(), changed.ContentHash)
}

func TestUpdateDescription_UnknownScenario(t *testing.T) {
	svc := NewService(Deps{Repo: newMockRepo()})

	_, err := svc.UpdateDescription(context.Background(), "SCN-9999", "new text")
	assert.True(t, errors.IsCode(err, errors.ErrCodeScenarioNotFound))
}

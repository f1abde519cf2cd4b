// Package catalog manages the scenario corpus: validated creation and
// description updates, with change events published so downstream consumers
// can refresh cached embeddings and the duplicate grouping.
package catalog

import (
	"context"

	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
)

// ScenarioInput is the caller-facing shape of a scenario definition.
type ScenarioInput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`

	// Platforms lists applicable platform identifiers; "ALL" declares
	// platform-agnostic applicability.
	Platforms []string `json:"applicable_platforms"`

	TargetSystems       []string `json:"target_systems,omitempty"`
	TargetComponents    []string `json:"target_components,omitempty"`
	RegulatoryStandards []string `json:"regulatory_standards,omitempty"`

	CostEstimate    float64 `json:"cost_estimate,omitempty"`
	DurationHours   float64 `json:"duration_hours,omitempty"`
	ComplexityScore int     `json:"complexity_score,omitempty"`
}

// Service is the catalog's application interface.
type Service interface {
	// Create validates and stores a new scenario and publishes its
	// creation event.
	Create(ctx context.Context, in ScenarioInput) (*scenario.Scenario, error)

	// UpdateDescription replaces a scenario's description and publishes
	// the change event that retires the previous embedding and grouping.
	UpdateDescription(ctx context.Context, id, description string) (*scenario.Scenario, error)
}

// Deps holds the service's injected dependencies.  Publisher may be nil;
// writes then happen without change events and consumers catch up on the
// next dedup sweep.
type Deps struct {
	Repo      scenario.Repository
	Publisher scenario.EventPublisher
	Logger    logging.Logger
}

type service struct {
	repo      scenario.Repository
	publisher scenario.EventPublisher
	logger    logging.Logger
}

// NewService constructs the catalog service.
func NewService(deps Deps) Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &service{
		repo:      deps.Repo,
		publisher: deps.Publisher,
		logger:    logger.Named("catalog"),
	}
}

func (s *service) Create(ctx context.Context, in ScenarioInput) (*scenario.Scenario, error) {
	category, err := scenario.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	platforms := make([]scenario.Platform, 0, len(in.Platforms))
	for _, p := range in.Platforms {
		parsed, err := scenario.ParsePlatform(p)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, parsed)
	}

	sc, err := scenario.New(in.ID, in.Name, in.Description, category, platforms...)
	if err != nil {
		return nil, err
	}
	sc.TargetSystems = in.TargetSystems
	sc.TargetComponents = in.TargetComponents
	sc.RegulatoryStandards = in.RegulatoryStandards
	sc.CostEstimate = in.CostEstimate
	sc.DurationHours = in.DurationHours
	sc.ComplexityScore = in.ComplexityScore
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, sc); err != nil {
		return nil, err
	}
	s.publish(ctx, sc)

	s.logger.Info("scenario created",
		logging.String("scenario_id", sc.ID),
		logging.String("category", string(sc.Category)))
	return sc, nil
}

func (s *service) UpdateDescription(ctx context.Context, id, description string) (*scenario.Scenario, error) {
	sc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sc.UpdateDescription(description); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sc); err != nil {
		return nil, err
	}
	s.publish(ctx, sc)

	s.logger.Info("scenario description updated", logging.String("scenario_id", sc.ID))
	return sc, nil
}

// publish is best-effort: a lost event delays re-embedding until the next
// dedup sweep instead of failing the write.
func (s *service) publish(ctx context.Context, sc *scenario.Scenario) {
	events := sc.Events()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish scenario change events",
			logging.String("scenario_id", sc.ID), logging.Err(err))
	}
}

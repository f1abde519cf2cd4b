// Package scenario provides the core domain model for validation scenarios:
// the Scenario aggregate, its invariants, and the ports through which the
// application layer reaches storage, the relationship graph, the embedding
// cache, and the selection history.
package scenario

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/ScenarioIQ/pkg/errors"
	"github.com/turtacn/ScenarioIQ/pkg/types/common"
)

// Platform identifies a vehicle powertrain platform.
type Platform string

const (
	PlatformEV  Platform = "EV"
	PlatformHEV Platform = "HEV"
	PlatformICE Platform = "ICE"

	// PlatformAll in a scenario's applicable-platform set marks the
	// scenario as platform-agnostic: it applies to every platform.
	PlatformAll Platform = "ALL"
)

// IsValid reports whether the platform is one of the concrete platforms.
// PlatformAll is not a concrete platform; it is only meaningful inside a
// scenario's applicable-platform set.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformEV, PlatformHEV, PlatformICE:
		return true
	default:
		return false
	}
}

// ParsePlatform normalises and validates a platform string.  PlatformAll is
// accepted so scenario definitions can declare platform-agnostic
// applicability; query parsing rejects it at the query layer.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToUpper(strings.TrimSpace(s)))
	if p != PlatformAll && !p.IsValid() {
		return "", errors.New(errors.ErrCodeValidation, "unsupported platform: "+s)
	}
	return p, nil
}

// Category classifies what a scenario validates.
type Category string

const (
	CategoryPerformance Category = "performance"
	CategoryDurability  Category = "durability"
	CategorySafety      Category = "safety"
	CategoryRegulatory  Category = "regulatory"
	CategoryADAS        Category = "adas"
	CategoryEmissions   Category = "emissions"
	CategoryOther       Category = "other"
)

// IsValid reports whether the category is one of the known values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPerformance, CategoryDurability, CategorySafety,
		CategoryRegulatory, CategoryADAS, CategoryEmissions, CategoryOther:
		return true
	default:
		return false
	}
}

// ParseCategory normalises and validates a category string.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", errors.New(errors.ErrCodeValidation, "unsupported category: "+s)
	}
	return c, nil
}

// DomainEvent is a marker interface for scenario-related domain events.
type DomainEvent interface {
	common.DomainEvent
	EventType() string
}

// ChangedEvent is published when a scenario is created or its description
// changes.  Consumers use it to invalidate cached embeddings and mark the
// current duplicate grouping stale.
type ChangedEvent struct {
	common.BaseEvent
	ScenarioID  string `json:"scenario_id"`
	ContentHash string `json:"content_hash"`
	Change      string `json:"change"` // "created" | "updated" | "deleted"
}

func (e ChangedEvent) EventType() string { return "scenario.changed" }

// Scenario is the aggregate root for a validation scenario.  A scenario
// describes one test to run against a vehicle configuration: what it
// exercises, which standards it satisfies, and what it costs to execute.
type Scenario struct {
	// ID is the stable scenario identifier, e.g. "SCN-0042".  Ordering of
	// IDs is used as the deterministic tie-break everywhere scores or costs
	// are equal.
	ID string `json:"id"`

	Name        string `json:"name"`
	Description string `json:"description"`

	// Category tags what the scenario validates, e.g. performance or
	// durability.
	Category Category `json:"category"`

	// ApplicablePlatforms lists the powertrain platforms the scenario
	// applies to.  A set containing PlatformAll applies to every platform.
	ApplicablePlatforms []Platform `json:"applicable_platforms"`

	// TargetSystems lists the vehicle systems exercised, e.g. "Battery".
	TargetSystems []string `json:"target_systems,omitempty"`

	// TargetComponents lists the concrete components exercised.
	TargetComponents []string `json:"target_components,omitempty"`

	// RegulatoryStandards lists the standards this scenario demonstrates
	// compliance with, e.g. "UNECE_R100".
	RegulatoryStandards []string `json:"regulatory_standards,omitempty"`

	// CostEstimate is the relative execution cost; lower is cheaper.  Used
	// to pick the representative of a duplicate group.
	CostEstimate float64 `json:"cost_estimate"`

	// DurationHours estimates the wall-clock execution time.
	DurationHours float64 `json:"duration_hours"`

	// ComplexityScore grades execution complexity from 1 (trivial) to 10.
	// Zero means ungraded.
	ComplexityScore int `json:"complexity_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// events holds unpublished domain events; cleared after publishing.
	events []DomainEvent
}

// New constructs a validated Scenario and records its creation event.
func New(id, name, description string, category Category, platforms ...Platform) (*Scenario, error) {
	s := &Scenario{
		ID:                  strings.TrimSpace(id),
		Name:                strings.TrimSpace(name),
		Description:         strings.TrimSpace(description),
		Category:            category,
		ApplicablePlatforms: platforms,
		CreatedAt:           time.Now().UTC(),
		UpdatedAt:           time.Now().UTC(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.record(ChangedEvent{
		BaseEvent:   common.NewBaseEvent(s.ID),
		ScenarioID:  s.ID,
		ContentHash: s.ContentHash(),
		Change:      "created",
	})
	return s, nil
}

// Validate checks the aggregate's invariants.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return errors.New(errors.ErrCodeScenarioInvalid, "scenario ID is required")
	}
	if s.Description == "" {
		return errors.New(errors.ErrCodeScenarioInvalid, "scenario description is required").
			WithDetail("id=" + s.ID)
	}
	if !s.Category.IsValid() {
		return errors.New(errors.ErrCodeScenarioInvalid, "scenario category is invalid").
			WithDetail("id=" + s.ID + " category=" + string(s.Category))
	}
	if len(s.ApplicablePlatforms) == 0 {
		return errors.New(errors.ErrCodeScenarioInvalid, "at least one applicable platform is required").
			WithDetail("id=" + s.ID)
	}
	for _, p := range s.ApplicablePlatforms {
		if p != PlatformAll && !p.IsValid() {
			return errors.New(errors.ErrCodeScenarioInvalid, "scenario platform is invalid").
				WithDetail("id=" + s.ID + " platform=" + string(p))
		}
	}
	if s.CostEstimate < 0 {
		return errors.New(errors.ErrCodeScenarioInvalid, "cost estimate must not be negative").
			WithDetail("id=" + s.ID)
	}
	if s.DurationHours < 0 {
		return errors.New(errors.ErrCodeScenarioInvalid, "duration estimate must not be negative").
			WithDetail("id=" + s.ID)
	}
	if s.ComplexityScore < 0 || s.ComplexityScore > 10 {
		return errors.New(errors.ErrCodeScenarioInvalid, "complexity score must be between 0 and 10").
			WithDetail("id=" + s.ID)
	}
	return nil
}

// AppliesTo reports whether the scenario covers the platform, either by
// listing it or by declaring platform-agnostic applicability.
func (s *Scenario) AppliesTo(p Platform) bool {
	for _, ap := range s.ApplicablePlatforms {
		if ap == PlatformAll || strings.EqualFold(string(ap), string(p)) {
			return true
		}
	}
	return false
}

// UpdateDescription replaces the description and records a change event.
// Cached embeddings keyed by the old content hash become unreachable and the
// previous duplicate grouping no longer applies to this scenario.
func (s *Scenario) UpdateDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return errors.New(errors.ErrCodeScenarioInvalid, "scenario description is required").
			WithDetail("id=" + s.ID)
	}
	if description == s.Description {
		return nil
	}
	s.Description = description
	s.UpdatedAt = time.Now().UTC()
	s.record(ChangedEvent{
		BaseEvent:   common.NewBaseEvent(s.ID),
		ScenarioID:  s.ID,
		ContentHash: s.ContentHash(),
		Change:      "updated",
	})
	return nil
}

// ContentHash returns the SHA-256 hex digest of the description text.  It is
// the embedding cache key: two scenarios with identical descriptions share
// one cached embedding, and an edited description naturally misses the cache.
func (s *Scenario) ContentHash() string {
	return HashContent(s.Description)
}

// HashContent hashes arbitrary text with the same digest used for scenario
// descriptions, for callers embedding free-form query text.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// EmbeddingText renders the text that is embedded for this scenario.
func (s *Scenario) EmbeddingText() string {
	return s.Description
}

// record appends a domain event for later publishing.
func (s *Scenario) record(e DomainEvent) {
	s.events = append(s.events, e)
}

// Events returns and clears the unpublished domain events.
func (s *Scenario) Events() []DomainEvent {
	out := s.events
	s.events = nil
	return out
}

// SortByID orders scenarios by ascending ID in place.
func SortByID(scenarios []*Scenario) {
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].ID < scenarios[j].ID })
}

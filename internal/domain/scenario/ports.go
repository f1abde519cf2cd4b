package scenario

import "context"

// Filter narrows a scenario listing.  Zero values mean "no constraint".
type Filter struct {
	Platform Platform
	System   string
	IDs      []string
}

// Repository is the persistence port for scenarios.  The canonical
// implementation is backed by PostgreSQL.
type Repository interface {
	// GetByID returns the scenario or an ErrCodeScenarioNotFound AppError.
	GetByID(ctx context.Context, id string) (*Scenario, error)

	// GetByIDs returns the scenarios for the given IDs, ordered by ID.
	// Unknown IDs are silently skipped; callers that need strictness can
	// compare lengths.
	GetByIDs(ctx context.Context, ids []string) ([]*Scenario, error)

	// List returns all scenarios matching the filter, ordered by ID.
	List(ctx context.Context, f Filter) ([]*Scenario, error)

	// ListAll returns the entire corpus ordered by ID.
	ListAll(ctx context.Context) ([]*Scenario, error)

	// Save inserts or updates a scenario.
	Save(ctx context.Context, s *Scenario) error
}

// GraphNeighbor is one scenario reached by graph traversal, with the
// shortest hop distance at which it was found.
type GraphNeighbor struct {
	ScenarioID string
	Hops       int
}

// GraphRepository is the read-only port to the scenario relationship graph.
// The platform does not own the graph schema; it only queries it.
type GraphRepository interface {
	// RelatedScenarios returns scenarios reachable from the seed component
	// and system nodes within maxHops, each with its minimum hop distance.
	// Implementations must honour ctx cancellation and deadlines.
	RelatedScenarios(ctx context.Context, seeds []string, maxHops int) ([]GraphNeighbor, error)
}

// EmbeddingCache stores computed embeddings keyed by content hash, never by
// scenario ID, so an edited description naturally misses.
type EmbeddingCache interface {
	// Get returns the cached vector and true, or nil and false on a miss.
	Get(ctx context.Context, contentHash string) ([]float32, bool, error)

	// Put stores a vector under the content hash.  Concurrent writers for
	// the same hash may race; first-writer-wins and both values are
	// identical by construction, so the race is benign.
	Put(ctx context.Context, contentHash string, vec []float32) error
}

// SelectionStats summarises how often a recommended scenario was accepted.
type SelectionStats struct {
	Selections int64
	Offers     int64
}

// Frequency returns the acceptance rate in [0, 1]; 0 when never offered.
func (s SelectionStats) Frequency() float64 {
	if s.Offers == 0 {
		return 0
	}
	f := float64(s.Selections) / float64(s.Offers)
	if f > 1 {
		f = 1
	}
	return f
}

// SelectionHistory is the port to past recommendation outcomes.
type SelectionHistory interface {
	// Stats returns selection counters for the scenario; a scenario never
	// seen returns zero counts, not an error.
	Stats(ctx context.Context, scenarioID string) (SelectionStats, error)

	// RecordOffer increments the offered counter for each scenario.
	RecordOffer(ctx context.Context, scenarioIDs []string) error

	// RecordSelection increments the accepted counter for the scenario.
	RecordSelection(ctx context.Context, scenarioID string) error
}

// VectorMatch is one approximate-nearest-neighbour hit from the vector index.
type VectorMatch struct {
	ScenarioID string
	Score      float64
}

// VectorIndex is the port to the ANN vector store holding scenario
// embeddings.  It serves candidate retrieval for recommendation queries and
// embedding persistence for dedup batches.
type VectorIndex interface {
	// Upsert writes embeddings for the given scenario IDs.
	Upsert(ctx context.Context, ids []string, vecs [][]float32) error

	// Search returns up to limit scenario IDs most similar to the query
	// vector, best first.
	Search(ctx context.Context, query []float32, limit int) ([]VectorMatch, error)
}

// EventPublisher publishes scenario domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

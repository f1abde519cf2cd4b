// Package embedding provides the cached embedding service shared by the
// recommendation engine and the duplicate detector.  It fronts the
// process-wide embedding provider with a content-hash keyed cache so that a
// dedup batch over a mostly-unchanged corpus re-embeds only edited
// scenarios.
package embedding

import (
	"context"

	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/internal/intelligence/embedder"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

// Service embeds text and scenarios, consulting the cache by content hash.
type Service interface {
	// EmbedText embeds free-form text (e.g. a recommendation query).
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedScenarios embeds each scenario's description, preserving order.
	// Cached vectors are reused; fresh vectors are written back.
	EmbedScenarios(ctx context.Context, scenarios []*scenario.Scenario) ([][]float32, error)

	// Dim returns the embedding dimension.
	Dim() int
}

type service struct {
	provider embedder.Provider
	cache    scenario.EmbeddingCache // nil disables caching
	logger   logging.Logger
}

// NewService constructs the embedding service.  cache may be nil, in which
// case every call computes fresh vectors.
func NewService(provider embedder.Provider, cache scenario.EmbeddingCache, logger logging.Logger) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &service{
		provider: provider,
		cache:    cache,
		logger:   logger.Named("embedding"),
	}
}

func (s *service) Dim() int { return s.provider.Dim() }

func (s *service) EmbedText(ctx context.Context, text string) ([]float32, error) {
	hash := scenario.HashContent(text)

	if vec, ok := s.cacheGet(ctx, hash); ok {
		return vec, nil
	}

	vec, err := s.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, hash, vec)
	return vec, nil
}

func (s *service) EmbedScenarios(ctx context.Context, scenarios []*scenario.Scenario) ([][]float32, error) {
	out := make([][]float32, len(scenarios))

	// Partition into cache hits and texts that need computing.
	var missIdx []int
	var missTexts []string
	for i, sc := range scenarios {
		if vec, ok := s.cacheGet(ctx, sc.ContentHash()); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, sc.EmbeddingText())
	}

	if len(missIdx) == 0 {
		return out, nil
	}

	vecs, err := s.provider.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "scenario batch embedding failed")
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		s.cachePut(ctx, scenarios[i].ContentHash(), vecs[j])
	}

	s.logger.Debug("scenario embeddings computed",
		logging.Int("total", len(scenarios)),
		logging.Int("cache_hits", len(scenarios)-len(missIdx)),
		logging.Int("computed", len(missIdx)))
	return out, nil
}

// cacheGet reads the cache, treating any cache error as a miss.  A broken
// cache must never fail an embedding computation.
func (s *service) cacheGet(ctx context.Context, hash string) ([]float32, bool) {
	if s.cache == nil {
		return nil, false
	}
	vec, ok, err := s.cache.Get(ctx, hash)
	if err != nil {
		s.logger.Warn("embedding cache read failed", logging.Err(err))
		return nil, false
	}
	return vec, ok
}

// cachePut writes the cache best-effort.
func (s *service) cachePut(ctx context.Context, hash string, vec []float32) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, hash, vec); err != nil {
		s.logger.Warn("embedding cache write failed", logging.Err(err))
	}
}

// Package recommend implements the scenario recommendation engine: a
// four-signal ensemble (semantic, graph, rule, historical) over candidate
// scenarios, combined with configurable weights and returned with a full
// per-signal breakdown.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/ScenarioIQ/internal/application/embedding"
	"github.com/turtacn/ScenarioIQ/internal/config"
	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
	"github.com/turtacn/ScenarioIQ/pkg/vectormath"
	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

// Service is the recommendation engine's application interface.
type Service interface {
	// Recommend scores candidates for the query and returns at most TopK
	// recommendations, best first.
	Recommend(ctx context.Context, q rectypes.Query) ([]rectypes.Recommendation, error)

	// RecordSelection reports that the caller accepted a recommendation,
	// feeding the historical signal.
	RecordSelection(ctx context.Context, scenarioID string) error
}

// Deps holds the service's injected dependencies.  Graph, History, and
// Vectors may be nil: the corresponding signal (or ANN candidate retrieval)
// degrades rather than failing the request.
type Deps struct {
	Repo      scenario.Repository
	Graph     scenario.GraphRepository
	History   scenario.SelectionHistory
	Vectors   scenario.VectorIndex
	Embedding embedding.Service
	Rules     *RuleEngine
	Logger    logging.Logger
}

type service struct {
	cfg     config.RecommendConfig
	repo    scenario.Repository
	graph   scenario.GraphRepository
	history scenario.SelectionHistory
	vectors scenario.VectorIndex
	embed   embedding.Service
	rules   *RuleEngine
	logger  logging.Logger
}

// NewService constructs the recommendation service.
func NewService(cfg config.RecommendConfig, deps Deps) Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	rules := deps.Rules
	if rules == nil {
		rules = NewRuleEngine()
	}
	return &service{
		cfg:     cfg,
		repo:    deps.Repo,
		graph:   deps.Graph,
		history: deps.History,
		vectors: deps.Vectors,
		embed:   deps.Embedding,
		rules:   rules,
		logger:  logger.Named("recommend"),
	}
}

// signalResult carries one signal's per-candidate scores plus whether the
// signal's backing store was unavailable.  degraded, when non-nil, flags
// candidates whose individual contribution failed while the signal as a
// whole stayed up.
type signalResult struct {
	scores      []float64
	unavailable bool
	degraded    []bool
}

func (r signalResult) degradedAt(i int) bool {
	return r.degraded != nil && r.degraded[i]
}

func (s *service) Recommend(ctx context.Context, q rectypes.Query) ([]rectypes.Recommendation, error) {
	start := time.Now()

	if err := s.validateQuery(&q); err != nil {
		return nil, err
	}

	candidates, err := s.resolveCandidates(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []rectypes.Recommendation{}, nil
	}

	// Rule scoring is pure computation; run it inline while the three
	// store-backed signals run in parallel.
	ruleScores := make([]float64, len(candidates))
	ruleFired := make([][]string, len(candidates))
	for i, c := range candidates {
		ruleScores[i], ruleFired[i] = s.rules.Score(q, c)
	}

	var semantic, graph, historical signalResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { semantic = s.semanticSignal(gctx, q, candidates); return nil })
	g.Go(func() error { graph = s.graphSignal(gctx, q, candidates); return nil })
	g.Go(func() error { historical = s.historicalSignal(gctx, candidates); return nil })
	_ = g.Wait() // signal computations degrade internally, never error

	recs := make([]rectypes.Recommendation, len(candidates))
	for i, c := range candidates {
		breakdown := rectypes.ScoreBreakdown{
			Semantic:   semantic.scores[i],
			Graph:      graph.scores[i],
			Rule:       ruleScores[i],
			Historical: historical.scores[i],
		}
		var unavail []rectypes.Signal
		if semantic.unavailable || semantic.degradedAt(i) {
			unavail = append(unavail, rectypes.SignalSemantic)
		}
		if graph.unavailable {
			unavail = append(unavail, rectypes.SignalGraph)
		}
		if historical.unavailable {
			unavail = append(unavail, rectypes.SignalHistorical)
		}

		recs[i] = rectypes.Recommendation{
			ScenarioID:      c.ID,
			ScenarioName:    c.Name,
			Category:        string(c.Category),
			CostEstimate:    c.CostEstimate,
			DurationHours:   c.DurationHours,
			ComplexityScore: c.ComplexityScore,
			Score: s.cfg.SemanticWeight*breakdown.Semantic +
				s.cfg.GraphWeight*breakdown.Graph +
				s.cfg.RuleWeight*breakdown.Rule +
				s.cfg.HistoricalWeight*breakdown.Historical,
			Breakdown:          breakdown,
			UnavailableSignals: unavail,
			RulesFired:         ruleFired[i],
		}
	}

	// Deterministic ordering: score descending, scenario ID ascending on
	// ties.
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].ScenarioID < recs[j].ScenarioID
	})

	// A zero TopK is the JSON-omitted field, not an explicit request for
	// nothing; it takes the configured default.
	topK := q.TopK
	if topK == 0 {
		topK = s.cfg.DefaultTopK
	}
	if len(recs) > topK {
		recs = recs[:topK]
	}

	s.recordOffers(ctx, recs)

	s.logger.Info("recommendation served",
		logging.String("platform", q.Platform),
		logging.Int("candidates", len(candidates)),
		logging.Int("returned", len(recs)),
		logging.Duration("elapsed", time.Since(start)))
	return recs, nil
}

func (s *service) RecordSelection(ctx context.Context, scenarioID string) error {
	if s.history == nil {
		return nil
	}
	return s.history.RecordSelection(ctx, scenarioID)
}

// validateQuery rejects malformed queries before any signal computation.
func (s *service) validateQuery(q *rectypes.Query) error {
	q.Platform = strings.TrimSpace(q.Platform)
	if q.Platform == "" {
		return errors.New(errors.ErrCodeRecommendInvalidQuery, "platform is required")
	}
	if q.TopK < 0 {
		return errors.New(errors.ErrCodeRecommendTopKInvalid, "top_k must not be negative")
	}
	if q.TopK > s.cfg.MaxTopK {
		return errors.Newf(errors.ErrCodeRecommendTopKInvalid,
			"top_k %d exceeds the maximum of %d", q.TopK, s.cfg.MaxTopK)
	}
	return nil
}

// resolveCandidates loads the scenarios to score: the caller's explicit
// list when given, otherwise an ANN retrieval from the vector index,
// otherwise the full corpus.
func (s *service) resolveCandidates(ctx context.Context, q rectypes.Query) ([]*scenario.Scenario, error) {
	if len(q.CandidateIDs) > 0 {
		scs, err := s.repo.GetByIDs(ctx, q.CandidateIDs)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeScenarioListFailed, "failed to load candidate scenarios")
		}
		return scs, nil
	}

	if s.vectors != nil {
		if ids := s.annCandidates(ctx, q); len(ids) > 0 {
			scs, err := s.repo.GetByIDs(ctx, ids)
			if err == nil && len(scs) > 0 {
				return scs, nil
			}
			if err != nil {
				s.logger.Warn("ANN candidate load failed, falling back to full corpus", logging.Err(err))
			}
		}
	}

	scs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScenarioListFailed, "failed to list scenario corpus")
	}
	return scs, nil
}

// annCandidates queries the vector index for scenarios near the query text.
// Any failure degrades to the full corpus.
func (s *service) annCandidates(ctx context.Context, q rectypes.Query) []string {
	vec, err := s.embed.EmbedText(ctx, s.queryText(q))
	if err != nil {
		s.logger.Warn("query embedding for ANN retrieval failed", logging.Err(err))
		return nil
	}
	matches, err := s.vectors.Search(ctx, vec, s.cfg.MaxTopK)
	if err != nil {
		s.logger.Warn("vector index search failed", logging.Err(err))
		return nil
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ScenarioID
	}
	return ids
}

// queryText renders the text embedded for the semantic signal.
func (s *service) queryText(q rectypes.Query) string {
	if q.Description != "" {
		return q.Description
	}
	parts := []string{q.Platform}
	parts = append(parts, q.Systems...)
	parts = append(parts, q.Components...)
	parts = append(parts, q.Standards...)
	return strings.Join(parts, " ")
}

// semanticSignal embeds the query and all candidates and scores each
// candidate by rescaled cosine similarity (cos+1)/2 ∈ [0, 1].
func (s *service) semanticSignal(ctx context.Context, q rectypes.Query, candidates []*scenario.Scenario) (res signalResult) {
	res = signalResult{scores: make([]float64, len(candidates))}
	defer s.recoverSignal("semantic", &res, len(candidates))

	queryVec, err := s.embed.EmbedText(ctx, s.queryText(q))
	if err != nil {
		s.logger.Warn("semantic signal degraded: query embedding failed", logging.Err(err))
		res.unavailable = true
		return res
	}

	vecs, err := s.embed.EmbedScenarios(ctx, candidates)
	if err != nil {
		s.logger.Warn("semantic signal degraded: candidate embedding failed", logging.Err(err))
		res.unavailable = true
		return res
	}

	for i, vec := range vecs {
		cos, err := vectormath.Cosine(queryVec, vec)
		if err != nil {
			// A bad vector zeroes that candidate's contribution only;
			// the rest of the corpus keeps its semantic scores.
			s.logger.Warn("semantic score degraded for scenario",
				logging.String("scenario_id", candidates[i].ID), logging.Err(err))
			if res.degraded == nil {
				res.degraded = make([]bool, len(candidates))
			}
			res.degraded[i] = true
			continue
		}
		res.scores[i] = (cos + 1) / 2
	}
	return res
}

// graphSignal scores candidates by relationship proximity: 1/(1+hops) for
// scenarios reachable from the query's component and system seeds, 0 for
// the rest.  A graph outage or timeout zeroes the whole signal.
func (s *service) graphSignal(ctx context.Context, q rectypes.Query, candidates []*scenario.Scenario) (res signalResult) {
	res = signalResult{scores: make([]float64, len(candidates))}
	defer s.recoverSignal("graph", &res, len(candidates))

	if s.graph == nil {
		res.unavailable = true
		return res
	}

	seeds := append(append([]string{}, q.Components...), q.Systems...)
	if len(seeds) == 0 {
		// Nothing to anchor traversal on; the signal is legitimately 0
		// for every candidate, not unavailable.
		return res
	}

	gctx, cancel := context.WithTimeout(ctx, s.cfg.GraphTimeout)
	defer cancel()

	neighbors, err := s.graph.RelatedScenarios(gctx, seeds, s.cfg.MaxHops)
	if err != nil {
		s.logger.Warn("graph signal degraded", logging.Err(err))
		res.unavailable = true
		return res
	}

	hops := make(map[string]int, len(neighbors))
	for _, n := range neighbors {
		if prev, ok := hops[n.ScenarioID]; !ok || n.Hops < prev {
			hops[n.ScenarioID] = n.Hops
		}
	}
	for i, c := range candidates {
		if h, ok := hops[c.ID]; ok {
			res.scores[i] = 1 / float64(1+h)
		}
	}
	return res
}

// historicalSignal scores candidates from past selection outcomes.  With no
// history store configured every candidate scores the neutral prior and the
// signal is flagged unavailable.
func (s *service) historicalSignal(ctx context.Context, candidates []*scenario.Scenario) (res signalResult) {
	res = signalResult{scores: make([]float64, len(candidates))}
	defer s.recoverSignal("historical", &res, len(candidates))

	if s.history == nil {
		for i := range res.scores {
			res.scores[i] = historicalNeutral
		}
		res.unavailable = true
		return res
	}

	for i, c := range candidates {
		stats, err := s.history.Stats(ctx, c.ID)
		if err != nil {
			s.logger.Warn("historical signal degraded", logging.Err(err))
			for j := range res.scores {
				res.scores[j] = historicalNeutral
			}
			res.unavailable = true
			return res
		}
		res.scores[i] = historicalScore(stats)
	}
	return res
}

// recoverSignal converts a panic inside a signal computation into a degraded
// all-zero signal instead of taking down the request.  It must run as a
// deferred call with a named-return pointer so the recovered result is what
// the caller sees.
func (s *service) recoverSignal(name string, res *signalResult, n int) {
	if r := recover(); r != nil {
		s.logger.Error("signal computation panicked",
			logging.String("signal", name),
			logging.String("panic", fmt.Sprint(r)))
		*res = signalResult{scores: make([]float64, n), unavailable: true}
	}
}

// recordOffers feeds the historical signal's denominator, best-effort.
func (s *service) recordOffers(ctx context.Context, recs []rectypes.Recommendation) {
	if s.history == nil || len(recs) == 0 {
		return
	}
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ScenarioID
	}
	if err := s.history.RecordOffer(ctx, ids); err != nil {
		s.logger.Warn("failed to record recommendation offers", logging.Err(err))
	}
}

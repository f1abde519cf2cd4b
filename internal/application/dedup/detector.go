// Package dedup finds validation scenarios that test the same thing.  It
// clusters scenario embeddings with density-based clustering, refines the
// clusters against a mean pairwise similarity threshold, and reports each
// surviving cluster as a duplicate group with a keep recommendation.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/ScenarioIQ/internal/application/embedding"
	"github.com/turtacn/ScenarioIQ/internal/config"
	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
	"github.com/turtacn/ScenarioIQ/pkg/vectormath"
	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

// Service is the duplicate detector's application interface.
type Service interface {
	// DetectDuplicates clusters the whole scenario corpus and returns the
	// duplicate groups found, ordered by group ID.
	DetectDuplicates(ctx context.Context, req rectypes.DedupRequest) ([]rectypes.DuplicateGroup, error)

	// FindSimilarPairs returns every scenario pair whose embedding cosine
	// similarity meets the threshold, most similar first.  A zero threshold
	// means the configured one.
	FindSimilarPairs(ctx context.Context, threshold float64) ([]rectypes.SimilarPair, error)
}

// Deps holds the detector's injected dependencies.  Vectors may be nil;
// embedding persistence is then skipped.
type Deps struct {
	Repo      scenario.Repository
	Embedding embedding.Service
	Vectors   scenario.VectorIndex
	Logger    logging.Logger
}

type service struct {
	cfg     config.DedupConfig
	repo    scenario.Repository
	embed   embedding.Service
	vectors scenario.VectorIndex
	logger  logging.Logger
}

// NewService constructs the duplicate-detection service.
func NewService(cfg config.DedupConfig, deps Deps) Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &service{
		cfg:     cfg,
		repo:    deps.Repo,
		embed:   deps.Embedding,
		vectors: deps.Vectors,
		logger:  logger.Named("dedup"),
	}
}

func (s *service) DetectDuplicates(ctx context.Context, req rectypes.DedupRequest) ([]rectypes.DuplicateGroup, error) {
	start := time.Now()

	threshold, eps, err := s.resolveThreshold(req.Threshold)
	if err != nil {
		return nil, err
	}

	scenarios, vecs, err := s.corpusEmbeddings(ctx)
	if err != nil {
		return nil, err
	}
	if len(scenarios) < s.cfg.MinClusterSize {
		return []rectypes.DuplicateGroup{}, nil
	}

	labels, err := dbscan(vecs, eps, s.cfg.MinClusterSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDedupFailed, "density clustering failed")
	}

	groups := []rectypes.DuplicateGroup{}
	for _, members := range clusterMembers(labels) {
		group, ok, err := s.refineCluster(scenarios, vecs, members, threshold)
		if err != nil {
			return nil, err
		}
		if ok {
			groups = append(groups, group)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].GroupID < groups[j].GroupID })

	s.logger.Info("duplicate detection finished",
		logging.Int("scenarios", len(scenarios)),
		logging.Int("groups", len(groups)),
		logging.Float64("threshold", threshold),
		logging.Duration("elapsed", time.Since(start)))
	return groups, nil
}

func (s *service) FindSimilarPairs(ctx context.Context, threshold float64) ([]rectypes.SimilarPair, error) {
	threshold, _, err := s.resolveThreshold(threshold)
	if err != nil {
		return nil, err
	}

	scenarios, vecs, err := s.corpusEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	sims, err := vectormath.PairwiseMatrix(vecs)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDedupFailed, "pairwise similarity failed")
	}

	pairs := []rectypes.SimilarPair{}
	for i := 0; i < len(scenarios); i++ {
		for j := i + 1; j < len(scenarios); j++ {
			if sims[i][j] >= threshold {
				a, b := scenarios[i].ID, scenarios[j].ID
				if b < a {
					a, b = b, a
				}
				pairs = append(pairs, rectypes.SimilarPair{
					ScenarioA:  a,
					ScenarioB:  b,
					Similarity: sims[i][j],
				})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Similarity != pairs[j].Similarity {
			return pairs[i].Similarity > pairs[j].Similarity
		}
		if pairs[i].ScenarioA != pairs[j].ScenarioA {
			return pairs[i].ScenarioA < pairs[j].ScenarioA
		}
		return pairs[i].ScenarioB < pairs[j].ScenarioB
	})
	return pairs, nil
}

// resolveThreshold validates an optional override and returns the effective
// similarity threshold together with the matching clustering radius.
func (s *service) resolveThreshold(override float64) (threshold, eps float64, err error) {
	threshold = s.cfg.SimilarityThreshold
	eps = s.cfg.Epsilon
	if override == 0 {
		return threshold, eps, nil
	}
	if override <= 0 || override > 1 {
		return 0, 0, errors.Newf(errors.ErrCodeDedupThresholdInvalid,
			"threshold %g must be in (0, 1]", override)
	}
	// Keep the clustering radius consistent with the overridden cosine
	// threshold: over unit vectors d = sqrt(2 − 2·cos).
	return override, vectormath.CosineToUnitDistance(override), nil
}

// corpusEmbeddings loads the whole corpus and its unit-normalised embeddings,
// persisting the vectors to the ANN index on the way when one is wired.
func (s *service) corpusEmbeddings(ctx context.Context) ([]*scenario.Scenario, [][]float32, error) {
	scenarios, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeScenarioListFailed, "failed to list scenario corpus")
	}
	scenario.SortByID(scenarios)

	if len(scenarios) == 0 {
		return scenarios, nil, nil
	}

	vecs, err := s.embed.EmbedScenarios(ctx, scenarios)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeDedupFailed, "failed to embed scenario corpus")
	}
	for i, v := range vecs {
		vecs[i] = vectormath.Normalize(v)
	}

	if s.vectors != nil {
		ids := make([]string, len(scenarios))
		for i, sc := range scenarios {
			ids[i] = sc.ID
		}
		if err := s.vectors.Upsert(ctx, ids, vecs); err != nil {
			s.logger.Warn("embedding upsert to vector index failed", logging.Err(err))
		}
	}
	return scenarios, vecs, nil
}

// refineCluster turns one raw cluster into a duplicate group, or rejects it.
// Members must each reach the threshold against the representative, and the
// surviving members' mean pairwise similarity must reach it too.
func (s *service) refineCluster(scenarios []*scenario.Scenario, vecs [][]float32, members []int, threshold float64) (rectypes.DuplicateGroup, bool, error) {
	rep := representative(scenarios, members)

	kept := members[:0:0]
	for _, m := range members {
		if m == rep {
			kept = append(kept, m)
			continue
		}
		sim, err := vectormath.Cosine(vecs[rep], vecs[m])
		if err != nil {
			return rectypes.DuplicateGroup{}, false, errors.Wrap(err, errors.ErrCodeDedupFailed, "similarity to representative failed")
		}
		if sim >= threshold {
			kept = append(kept, m)
		}
	}
	if len(kept) < s.cfg.MinClusterSize {
		return rectypes.DuplicateGroup{}, false, nil
	}

	sub := make([][]float32, len(kept))
	for i, m := range kept {
		sub[i] = vecs[m]
	}
	sims, err := vectormath.PairwiseMatrix(sub)
	if err != nil {
		return rectypes.DuplicateGroup{}, false, errors.Wrap(err, errors.ErrCodeDedupFailed, "cluster similarity failed")
	}
	mean := vectormath.MeanOffDiagonal(sims)
	if mean < threshold {
		return rectypes.DuplicateGroup{}, false, nil
	}

	ids := make([]string, len(kept))
	for i, m := range kept {
		ids[i] = scenarios[m].ID
	}
	sort.Strings(ids)

	return rectypes.DuplicateGroup{
		GroupID:          groupID(ids),
		MemberIDs:        ids,
		RepresentativeID: scenarios[rep].ID,
		MeanSimilarity:   mean,
	}, true, nil
}

// representative picks the member to keep: the lowest execution cost, ties
// broken by the lexically smallest scenario ID.
func representative(scenarios []*scenario.Scenario, members []int) int {
	best := members[0]
	for _, m := range members[1:] {
		switch {
		case scenarios[m].CostEstimate < scenarios[best].CostEstimate:
			best = m
		case scenarios[m].CostEstimate == scenarios[best].CostEstimate && scenarios[m].ID < scenarios[best].ID:
			best = m
		}
	}
	return best
}

// clusterMembers groups point indices by cluster label, dropping noise, and
// returns the clusters ordered by label.
func clusterMembers(labels []int) [][]int {
	byLabel := map[int][]int{}
	for i, l := range labels {
		if l == dbscanNoise {
			continue
		}
		byLabel[l] = append(byLabel[l], i)
	}
	order := make([]int, 0, len(byLabel))
	for l := range byLabel {
		order = append(order, l)
	}
	sort.Ints(order)

	out := make([][]int, 0, len(order))
	for _, l := range order {
		out = append(out, byLabel[l])
	}
	return out
}

// groupID derives a stable identifier from the sorted member IDs, so the same
// group keeps the same ID across runs.
func groupID(memberIDs []string) string {
	sum := sha256.Sum256([]byte(strings.Join(memberIDs, "\x00")))
	return "dup-" + hex.EncodeToString(sum[:6])
}

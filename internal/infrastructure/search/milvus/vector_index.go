package milvus

import (
	"context"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

// VectorIndex implements scenario.VectorIndex over the Store's collection.
type VectorIndex struct {
	store  *Store
	dim    int
	logger logging.Logger
}

// NewVectorIndex constructs the index over an established store.  dim must
// match the collection's embedding dimension.
func NewVectorIndex(store *Store, dim int, logger logging.Logger) *VectorIndex {
	return &VectorIndex{store: store, dim: dim, logger: logger.Named("vector_index")}
}

func (v *VectorIndex) Upsert(ctx context.Context, ids []string, vecs [][]float32) error {
	if len(ids) != len(vecs) {
		return errors.Newf(errors.ErrCodeVectorStoreError,
			"id/vector count mismatch: %d vs %d", len(ids), len(vecs))
	}
	if len(ids) == 0 {
		return nil
	}
	for i, vec := range vecs {
		if len(vec) != v.dim {
			return errors.Newf(errors.ErrCodeEmbeddingDimMismatch,
				"vector %d has dimension %d, collection expects %d", i, len(vec), v.dim)
		}
	}

	_, err := v.store.api.Upsert(ctx, v.store.cfg.Collection, "",
		entity.NewColumnVarChar(fieldScenarioID, ids),
		entity.NewColumnFloatVector(fieldEmbedding, v.dim, vecs))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorStoreError, "embedding upsert failed")
	}
	return nil
}

func (v *VectorIndex) Search(ctx context.Context, query []float32, limit int) ([]scenario.VectorMatch, error) {
	if len(query) != v.dim {
		return nil, errors.Newf(errors.ErrCodeEmbeddingDimMismatch,
			"query has dimension %d, collection expects %d", len(query), v.dim)
	}
	if limit <= 0 {
		limit = v.store.cfg.CandidateLimit
	}

	sp, err := entity.NewIndexHNSWSearchParam(v.store.cfg.SearchEf)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorStoreError, "invalid search parameters")
	}

	results, err := v.store.api.Search(ctx, v.store.cfg.Collection, nil, "",
		[]string{fieldScenarioID},
		[]entity.Vector{entity.FloatVector(query)},
		fieldEmbedding, entity.IP, limit, sp)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorStoreError, "vector search failed")
	}

	matches := []scenario.VectorMatch{}
	for _, res := range results {
		idCol, ok := res.IDs.(*entity.ColumnVarChar)
		if !ok {
			return nil, errors.New(errors.ErrCodeVectorStoreError, "unexpected primary key column type")
		}
		for i, id := range idCol.Data() {
			score := float64(0)
			if i < len(res.Scores) {
				score = float64(res.Scores[i])
			}
			matches = append(matches, scenario.VectorMatch{ScenarioID: id, Score: score})
		}
	}
	return matches, nil
}

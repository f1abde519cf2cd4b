package milvus

import (
	"context"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

const (
	fieldScenarioID = "scenario_id"
	fieldEmbedding  = "embedding"

	scenarioIDMaxLength = 64
)

// EnsureCollection creates and loads the scenario embedding collection if it
// does not exist.  dim must match the embedding provider's output dimension.
func (s *Store) EnsureCollection(ctx context.Context, dim int) error {
	exists, err := s.api.HasCollection(ctx, s.cfg.Collection)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorStoreError, "failed to check collection existence")
	}

	if !exists {
		schema := entity.NewSchema().
			WithName(s.cfg.Collection).
			WithDescription("scenario description embeddings").
			WithField(entity.NewField().
				WithName(fieldScenarioID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(scenarioIDMaxLength).
				WithIsPrimaryKey(true)).
			WithField(entity.NewField().
				WithName(fieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(dim)))

		if err := s.api.CreateCollection(ctx, schema, 1); err != nil {
			return errors.Wrap(err, errors.ErrCodeVectorStoreError, "failed to create collection")
		}

		// Embeddings are unit-normalised, so inner product equals cosine.
		index, err := entity.NewIndexHNSW(entity.IP, s.cfg.HNSWM, s.cfg.HNSWEfConstruction)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeVectorStoreError, "invalid HNSW index parameters")
		}
		if err := s.api.CreateIndex(ctx, s.cfg.Collection, fieldEmbedding, index, false); err != nil {
			return errors.Wrap(err, errors.ErrCodeVectorStoreError, "failed to create HNSW index")
		}

		s.logger.Info("created Milvus collection",
			logging.String("collection", s.cfg.Collection),
			logging.String("dim", strconv.Itoa(dim)))
	}

	if err := s.api.LoadCollection(ctx, s.cfg.Collection, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorStoreError, "failed to load collection")
	}
	return nil
}

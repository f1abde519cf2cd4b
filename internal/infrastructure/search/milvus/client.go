// Package milvus persists scenario embeddings in a Milvus collection and
// serves approximate-nearest-neighbour candidate retrieval for the
// recommendation engine.
package milvus

import (
	"context"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/turtacn/ScenarioIQ/internal/config"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

// api is the slice of the Milvus client this package uses.  client.Client
// satisfies it; tests substitute a hand-written fake.
type api interface {
	HasCollection(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, schema *entity.Schema, shards int32, opts ...client.CreateCollectionOption) error
	CreateIndex(ctx context.Context, collName, fieldName string, idx entity.Index, async bool, opts ...client.IndexOption) error
	LoadCollection(ctx context.Context, collName string, async bool, opts ...client.LoadCollectionOption) error
	Upsert(ctx context.Context, collName, partitionName string, columns ...entity.Column) (entity.Column, error)
	Search(ctx context.Context, collName string, partitions []string, expr string,
		outputFields []string, vectors []entity.Vector, vectorField string,
		metricType entity.MetricType, topK int, sp entity.SearchParam, opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error)
	Close() error
}

// Store wraps the Milvus connection for the scenario embedding collection.
type Store struct {
	api    api
	cfg    config.MilvusConfig
	logger logging.Logger
}

// NewStore connects to Milvus.
func NewStore(ctx context.Context, cfg config.MilvusConfig, logger logging.Logger) (*Store, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address: cfg.Addr,
		DBName:  cfg.DBName,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorStoreError, "failed to connect to milvus")
	}
	logger.Info("connected to Milvus",
		logging.String("addr", cfg.Addr),
		logging.String("collection", cfg.Collection))
	return &Store{api: c, cfg: cfg, logger: logger}, nil
}

// HealthCheck verifies the connection by probing for the configured
// collection.
func (s *Store) HealthCheck(ctx context.Context) error {
	if _, err := s.api.HasCollection(ctx, s.cfg.Collection); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorStoreError, "milvus health check failed")
	}
	return nil
}

// Close shuts the connection down.
func (s *Store) Close() error {
	if err := s.api.Close(); err != nil {
		s.logger.Error("failed to close milvus client", logging.Err(err))
		return err
	}
	return nil
}

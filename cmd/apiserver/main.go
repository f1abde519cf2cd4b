// API server entry point: assembles the recommendation and dedup services
// over Postgres, Neo4j, Redis, Milvus, and serves the HTTP and gRPC APIs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/turtacn/ScenarioIQ/internal/application/catalog"
	"github.com/turtacn/ScenarioIQ/internal/application/dedup"
	"github.com/turtacn/ScenarioIQ/internal/application/embedding"
	"github.com/turtacn/ScenarioIQ/internal/application/recommend"
	"github.com/turtacn/ScenarioIQ/internal/config"
	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/database/neo4j"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/database/postgres"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/database/redis"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/search/milvus"
	"github.com/turtacn/ScenarioIQ/internal/intelligence/embedder"
	grpcserver "github.com/turtacn/ScenarioIQ/internal/interfaces/grpc"
	httpserver "github.com/turtacn/ScenarioIQ/internal/interfaces/http"
	"github.com/turtacn/ScenarioIQ/internal/interfaces/http/handlers"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: env only)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}

	logger.Info("starting apiserver",
		logging.Int("http_port", cfg.Server.Port),
		logging.Int("grpc_port", cfg.GRPC.Port),
	)

	// The embedding provider is process-wide; a failed init must abort
	// startup rather than serve degraded vectors.
	if err := embedder.Init(cfg.Embedding.Backend, cfg.Embedding.Dim); err != nil {
		return fmt.Errorf("embedding init: %w", err)
	}
	provider, err := embedder.Get()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	repo := postgres.NewScenarioRepository(pool.Pool(), logger)
	if cfg.Database.MigrationsPath != "" {
		if err := postgres.RunMigrations(postgres.BuildDSN(cfg.Database), cfg.Database.MigrationsPath); err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
	} else if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("postgres schema: %w", err)
	}

	// Neo4j
	graphDriver, err := neo4j.NewDriver(cfg.Neo4j, logger)
	if err != nil {
		return fmt.Errorf("neo4j: %w", err)
	}
	defer graphDriver.Close()
	graphRepo := neo4j.NewGraphRepository(graphDriver, logger)

	// Redis
	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()
	history := redis.NewSelectionHistory(redisClient, logger)

	var cache scenario.EmbeddingCache
	if cfg.Embedding.CacheEnabled {
		cache = redis.NewEmbeddingCache(redisClient, logger)
	} else {
		cache = embedding.NewMemoryCache()
	}
	embeddingSvc := embedding.NewService(provider, cache, logger)

	// Milvus.  A missing vector store degrades ANN retrieval and embedding
	// persistence; it never blocks startup.
	var vectors scenario.VectorIndex
	milvusStore, err := milvus.NewStore(ctx, cfg.Milvus, logger)
	if err != nil {
		logger.Warn("milvus unavailable, ANN retrieval disabled", logging.Err(err))
	} else {
		defer milvusStore.Close()
		if err := milvusStore.EnsureCollection(ctx, cfg.Embedding.Dim); err != nil {
			logger.Warn("milvus collection setup failed, ANN retrieval disabled", logging.Err(err))
		} else {
			vectors = milvus.NewVectorIndex(milvusStore, cfg.Embedding.Dim, logger)
		}
	}

	// Kafka publisher for scenario change events; the dedup worker consumes
	// them to refresh embeddings and duplicate groupings.
	publisher := kafka.NewPublisher(cfg.Kafka, logger)
	defer publisher.Close()

	// Application services
	recommendSvc := recommend.NewService(cfg.Recommend, recommend.Deps{
		Repo:      repo,
		Graph:     graphRepo,
		History:   history,
		Vectors:   vectors,
		Embedding: embeddingSvc,
		Logger:    logger,
	})
	dedupSvc := dedup.NewService(cfg.Dedup, dedup.Deps{
		Repo:      repo,
		Embedding: embeddingSvc,
		Vectors:   vectors,
		Logger:    logger,
	})
	catalogSvc := catalog.NewService(catalog.Deps{
		Repo:      repo,
		Publisher: publisher,
		Logger:    logger,
	})

	// Metrics
	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := prometheus.NewMetrics(registry)

	// HTTP
	checkers := []handlers.Checker{
		{Name: "postgres", Check: pool.HealthCheck},
		{Name: "neo4j", Check: graphDriver.HealthCheck},
		{Name: "redis", Check: redisClient.HealthCheck},
	}
	if milvusStore != nil {
		checkers = append(checkers, handlers.Checker{Name: "milvus", Check: milvusStore.HealthCheck})
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		RecommendHandler: handlers.NewRecommendHandler(recommendSvc, metrics, logger),
		DedupHandler:     handlers.NewDedupHandler(dedupSvc, metrics, logger),
		CatalogHandler:   handlers.NewCatalogHandler(catalogSvc, logger),
		HealthHandler:    handlers.NewHealthHandler(logger, checkers...),
		Metrics:          metrics,
		Registry:         registry,
		Logger:           logger,
		Mode:             cfg.Server.Mode,
	})
	httpSrv := httpserver.NewServer(cfg.Server, router, logger)

	// gRPC
	grpcSrv, err := grpcserver.NewServer(cfg.GRPC,
		grpcserver.WithLogger(logger),
		grpcserver.WithMetrics(metrics),
	)
	if err != nil {
		return fmt.Errorf("grpc: %w", err)
	}
	grpcSrv.RegisterService(&grpcserver.ScenarioServiceDesc,
		grpcserver.NewScenarioService(recommendSvc, dedupSvc))

	errCh := make(chan error, 2)
	go func() { errCh <- httpSrv.Start() }()
	go func() { errCh <- grpcSrv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", logging.Err(err))
		}
	}

	shutdownCtx := context.Background()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", logging.Err(err))
	}
	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		logger.Error("grpc shutdown", logging.Err(err))
	}

	logger.Info("apiserver stopped")
	return nil
}

// loadConfig reads the file at path when given, otherwise builds the config
// from SCENIQ_* environment variables alone.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

// Worker entry point: consumes scenario change events to keep embeddings and
// the vector index current, and runs the periodic duplicate-detection sweep
// under a distributed lock so only one worker instance sweeps at a time.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/ScenarioIQ/internal/application/dedup"
	"github.com/turtacn/ScenarioIQ/internal/application/embedding"
	"github.com/turtacn/ScenarioIQ/internal/config"
	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/database/postgres"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/database/redis"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/search/milvus"
	"github.com/turtacn/ScenarioIQ/internal/intelligence/embedder"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
	"github.com/turtacn/ScenarioIQ/pkg/vectormath"
)

const (
	dedupLockName = "dedup-sweep"
	dedupLockTTL  = 10 * time.Minute
	healthPort    = 8081
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: env only)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
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
	logger = logger.Named("worker")

	if err := embedder.Init(cfg.Embedding.Backend, cfg.Embedding.Dim); err != nil {
		return fmt.Errorf("embedding init: %w", err)
	}
	provider, err := embedder.Get()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	repo := postgres.NewScenarioRepository(pool.Pool(), logger)

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()

	var cache scenario.EmbeddingCache
	if cfg.Embedding.CacheEnabled {
		cache = redis.NewEmbeddingCache(redisClient, logger)
	} else {
		cache = embedding.NewMemoryCache()
	}
	embeddingSvc := embedding.NewService(provider, cache, logger)

	var vectors scenario.VectorIndex
	milvusStore, err := milvus.NewStore(ctx, cfg.Milvus, logger)
	if err != nil {
		logger.Warn("milvus unavailable, vector index updates disabled", logging.Err(err))
	} else {
		defer milvusStore.Close()
		if err := milvusStore.EnsureCollection(ctx, cfg.Embedding.Dim); err != nil {
			logger.Warn("milvus collection setup failed, vector index updates disabled", logging.Err(err))
		} else {
			vectors = milvus.NewVectorIndex(milvusStore, cfg.Embedding.Dim, logger)
		}
	}

	dedupSvc := dedup.NewService(cfg.Dedup, dedup.Deps{
		Repo:      repo,
		Embedding: embeddingSvc,
		Vectors:   vectors,
		Logger:    logger,
	})

	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := prometheus.NewMetrics(registry)

	w := &worker{
		cfg:       cfg,
		repo:      repo,
		embedding: embeddingSvc,
		vectors:   vectors,
		dedup:     dedupSvc,
		sweepLock: redis.NewMutex(redisClient, dedupLockName, dedupLockTTL, logger),
		metrics:   metrics,
		logger:    logger,
	}

	consumer := kafka.NewConsumer(cfg.Kafka, logger)
	defer consumer.Close()

	healthSrv := newHealthServer(registry)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(gCtx, w.handleEvent)
	})
	g.Go(func() error {
		return w.sweepLoop(gCtx)
	})
	g.Go(func() error {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return healthSrv.Shutdown(shutdownCtx)
	})

	logger.Info("worker started",
		logging.String("topic", cfg.Kafka.ScenarioTopic),
		logging.Duration("dedup_interval", cfg.Worker.DedupInterval),
	)

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	logger.Info("worker stopped")
	return nil
}

// worker owns the event handler and the periodic dedup sweep.
type worker struct {
	cfg       *config.Config
	repo      scenario.Repository
	embedding embedding.Service
	vectors   scenario.VectorIndex
	dedup     dedup.Service
	sweepLock *redis.Mutex
	metrics   *prometheus.Metrics
	logger    logging.Logger

	// groupingStale is set when a scenario changes; the next sweep tick
	// runs immediately instead of waiting a full interval.
	groupingStale atomic.Bool
}

// handleEvent processes one scenario change event: re-embed the changed
// scenario, refresh its vector-index entry, and mark the duplicate grouping
// stale.  The embedding cache keys on content hash, so a changed description
// misses the cache without explicit invalidation.
func (w *worker) handleEvent(ctx context.Context, env kafka.Envelope) error {
	ev, err := env.ChangedEvent()
	if err != nil {
		return err
	}

	w.logger.Info("scenario change event",
		logging.String("scenario_id", ev.ScenarioID),
		logging.String("change", ev.Change),
	)
	w.groupingStale.Store(true)

	if ev.Change == "deleted" {
		w.observeEvent("ok")
		return nil
	}

	s, err := w.repo.GetByID(ctx, ev.ScenarioID)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeScenarioNotFound) {
			// Deleted between event and processing; nothing to refresh.
			w.observeEvent("skipped")
			return nil
		}
		w.observeEvent("error")
		return err
	}

	vecs, err := w.embedding.EmbedScenarios(ctx, []*scenario.Scenario{s})
	if err != nil {
		w.observeEvent("error")
		return err
	}

	if w.vectors != nil {
		unit := vectormath.Normalize(vecs[0])
		if err := w.vectors.Upsert(ctx, []string{s.ID}, [][]float32{unit}); err != nil {
			w.observeEvent("error")
			return err
		}
	}

	w.observeEvent("ok")
	return nil
}

func (w *worker) observeEvent(result string) {
	w.metrics.EventsConsumedTotal.WithLabelValues(result).Inc()
}

// sweepLoop runs duplicate detection on the configured interval, or sooner
// when the grouping has been marked stale.  The Redis lock keeps concurrent
// worker replicas from sweeping at the same time.
func (w *worker) sweepLoop(ctx context.Context) error {
	// The stale check ticks faster than the full interval so a changed
	// scenario is regrouped promptly.
	staleCheck := w.cfg.Worker.DedupInterval / 10
	if staleCheck < time.Second {
		staleCheck = time.Second
	}

	ticker := time.NewTicker(staleCheck)
	defer ticker.Stop()

	lastSweep := time.Time{}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		due := time.Since(lastSweep) >= w.cfg.Worker.DedupInterval
		if !due && !w.groupingStale.Load() {
			continue
		}

		if err := w.sweep(ctx); err != nil {
			w.logger.Error("dedup sweep failed", logging.Err(err))
			continue
		}
		w.groupingStale.Store(false)
		lastSweep = time.Now()
	}
}

// sweep runs one duplicate-detection pass under the distributed lock.
func (w *worker) sweep(ctx context.Context) error {
	acquired, err := w.sweepLock.TryLock(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		w.logger.Debug("dedup sweep lock held elsewhere, skipping")
		return nil
	}
	defer func() {
		if err := w.sweepLock.Unlock(context.Background()); err != nil {
			w.logger.Warn("failed to release dedup sweep lock", logging.Err(err))
		}
	}()

	start := time.Now()
	groups, err := w.dedup.DetectDuplicates(ctx, rectypes.DedupRequest{})
	elapsed := time.Since(start)

	if err != nil {
		w.metrics.DedupRunsTotal.WithLabelValues("error").Inc()
		w.metrics.DedupRunDuration.Observe(elapsed.Seconds())
		return err
	}

	w.metrics.DedupRunsTotal.WithLabelValues("ok").Inc()
	w.metrics.DedupRunDuration.Observe(elapsed.Seconds())
	w.metrics.DedupGroupsFound.Set(float64(len(groups)))

	w.logger.Info("dedup sweep complete",
		logging.Int("groups", len(groups)),
		logging.Duration("elapsed", elapsed),
	)
	return nil
}

// newHealthServer serves liveness and metrics for probes and scraping.
func newHealthServer(registry *promclient.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:        fmt.Sprintf(":%d", healthPort),
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}
}

// loadConfig reads the file at path when given, otherwise builds the config
// from SCENIQ_* environment variables alone.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

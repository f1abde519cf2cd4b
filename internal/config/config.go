// Package config defines all configuration structures for the ScenarioIQ
// platform.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"math"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GRPCConfig holds gRPC server tunables.  The gRPC surface currently serves
// health checks and reflection; RPC services register at startup.
type GRPCConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Debug           bool          `mapstructure:"debug"` // registers the reflection service
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the scenario store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// MigrationsPath is a golang-migrate source URL (e.g. "file://migrations").
	// When set, pending migrations run at startup; when empty, the repository
	// creates its own schema.
	MigrationsPath string `mapstructure:"migrations_path"`
}

// Neo4jConfig holds connection parameters for the scenario relationship graph.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	QueryTimeout          time.Duration `mapstructure:"query_timeout"`
	Database              string        `mapstructure:"database"`
}

// RedisConfig holds Redis connection parameters for the embedding cache and
// selection-history counters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters for scenario
// change events.
type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	GroupID         string   `mapstructure:"group_id"`
	ScenarioTopic   string   `mapstructure:"scenario_topic"`
	AutoOffsetReset string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries int      `mapstructure:"producer_retries"`
	BatchSize       int      `mapstructure:"batch_size"`
}

// MilvusConfig holds Milvus vector-store connection parameters.
type MilvusConfig struct {
	Addr               string `mapstructure:"addr"`
	DBName             string `mapstructure:"db_name"`
	Collection         string `mapstructure:"collection"`
	IndexType          string `mapstructure:"index_type"`
	HNSWM              int    `mapstructure:"hnsw_m"`
	HNSWEfConstruction int    `mapstructure:"hnsw_ef_construction"`
	SearchEf           int    `mapstructure:"search_ef"`
	CandidateLimit     int    `mapstructure:"candidate_limit"`
}

// EmbeddingConfig holds embedding provider parameters.  The provider is
// initialised exactly once per process; changing these values requires a
// restart.
type EmbeddingConfig struct {
	// Backend selects the embedding implementation: "local" is the built-in
	// deterministic feature-hashing encoder.
	Backend string `mapstructure:"backend"`

	// Dim is the output vector dimension.  All stored embeddings must share
	// this dimension; a mismatch is a startup error.
	Dim int `mapstructure:"dim"`

	// CacheEnabled toggles the content-hash embedding cache.
	CacheEnabled bool `mapstructure:"cache_enabled"`
}

// RecommendConfig holds ensemble scoring parameters.  The four weights must
// sum to 1.0.
type RecommendConfig struct {
	SemanticWeight   float64 `mapstructure:"semantic_weight"`
	GraphWeight      float64 `mapstructure:"graph_weight"`
	RuleWeight       float64 `mapstructure:"rule_weight"`
	HistoricalWeight float64 `mapstructure:"historical_weight"`

	// MaxHops bounds graph traversal depth for relationship scoring.
	MaxHops int `mapstructure:"max_hops"`

	// DefaultTopK is used when a query does not specify top_k.
	DefaultTopK int `mapstructure:"default_top_k"`

	// MaxTopK is the hard upper bound accepted from callers.
	MaxTopK int `mapstructure:"max_top_k"`

	// GraphTimeout bounds a single graph signal computation; on expiry the
	// graph signal degrades to zero for all candidates.
	GraphTimeout time.Duration `mapstructure:"graph_timeout"`
}

// DedupConfig holds duplicate-detection parameters.
type DedupConfig struct {
	// SimilarityThreshold is the minimum mean pairwise cosine similarity for
	// a cluster to be reported as a duplicate group, in (0, 1].
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`

	// MinClusterSize is the smallest cluster the density clustering will
	// form; smaller groupings are noise.
	MinClusterSize int `mapstructure:"min_cluster_size"`

	// Epsilon is the neighbourhood radius in euclidean distance over
	// unit-normalised embeddings.
	Epsilon float64 `mapstructure:"epsilon"`
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	DedupInterval  time.Duration `mapstructure:"dedup_interval"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoffMS time.Duration `mapstructure:"retry_backoff_ms"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
}

// Config is the root configuration structure for the entire platform.
// Every infrastructure component and application service reads its settings
// from the relevant sub-struct.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Neo4j     Neo4jConfig     `mapstructure:"neo4j"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Milvus    MilvusConfig    `mapstructure:"milvus"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Log       LogConfig       `mapstructure:"log"`
}

// weightSumTolerance absorbs float representation error when checking that
// the four signal weights sum to 1.
const weightSumTolerance = 1e-9

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// gRPC
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("config: grpc.port %d is out of range [1, 65535]", c.GRPC.Port)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
	}

	// Neo4j
	if c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required")
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	// Milvus
	if c.Milvus.Addr == "" {
		return fmt.Errorf("config: milvus.addr is required")
	}

	// Embedding
	if c.Embedding.Dim < 1 {
		return fmt.Errorf("config: embedding.dim must be >= 1, got %d", c.Embedding.Dim)
	}
	switch c.Embedding.Backend {
	case "local":
	default:
		return fmt.Errorf("config: embedding.backend %q is unsupported; expected local", c.Embedding.Backend)
	}

	// Recommend
	sum := c.Recommend.SemanticWeight + c.Recommend.GraphWeight +
		c.Recommend.RuleWeight + c.Recommend.HistoricalWeight
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("config: recommend signal weights must sum to 1.0, got %g", sum)
	}
	for name, w := range map[string]float64{
		"semantic_weight":   c.Recommend.SemanticWeight,
		"graph_weight":      c.Recommend.GraphWeight,
		"rule_weight":       c.Recommend.RuleWeight,
		"historical_weight": c.Recommend.HistoricalWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("config: recommend.%s %g is out of range [0, 1]", name, w)
		}
	}
	if c.Recommend.MaxHops < 1 {
		return fmt.Errorf("config: recommend.max_hops must be >= 1, got %d", c.Recommend.MaxHops)
	}
	if c.Recommend.DefaultTopK < 1 {
		return fmt.Errorf("config: recommend.default_top_k must be >= 1, got %d", c.Recommend.DefaultTopK)
	}
	if c.Recommend.MaxTopK < c.Recommend.DefaultTopK {
		return fmt.Errorf("config: recommend.max_top_k %d must be >= default_top_k %d",
			c.Recommend.MaxTopK, c.Recommend.DefaultTopK)
	}

	// Dedup
	if c.Dedup.SimilarityThreshold <= 0 || c.Dedup.SimilarityThreshold > 1 {
		return fmt.Errorf("config: dedup.similarity_threshold %g is out of range (0, 1]",
			c.Dedup.SimilarityThreshold)
	}
	if c.Dedup.MinClusterSize < 2 {
		return fmt.Errorf("config: dedup.min_cluster_size must be >= 2, got %d", c.Dedup.MinClusterSize)
	}
	if c.Dedup.Epsilon <= 0 {
		return fmt.Errorf("config: dedup.epsilon must be > 0, got %g", c.Dedup.Epsilon)
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

// Package config provides configuration loading, defaults, and validation for
// the ScenarioIQ platform.
package config

import "time"

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultGRPCPort            = 9090
	DefaultGRPCGracefulTimeout = 10 * time.Second

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "sceniq"
	DefaultDBMaxConns = 25

	DefaultNeo4jURI          = "bolt://localhost:7687"
	DefaultNeo4jQueryTimeout = 3 * time.Second

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker        = "localhost:9092"
	DefaultKafkaGroupID       = "sceniq-worker"
	DefaultKafkaScenarioTopic = "scenario-events"

	DefaultMilvusAddr       = "localhost:19530"
	DefaultMilvusCollection = "scenario_embeddings"

	DefaultEmbeddingBackend = "local"
	DefaultEmbeddingDim     = 384

	DefaultSemanticWeight   = 0.4
	DefaultGraphWeight      = 0.3
	DefaultRuleWeight       = 0.2
	DefaultHistoricalWeight = 0.1
	DefaultMaxHops          = 2
	DefaultTopK             = 5
	DefaultMaxTopK          = 500
	DefaultGraphTimeout     = 2 * time.Second

	DefaultSimilarityThreshold = 0.85
	DefaultMinClusterSize      = 2
	// 0.85 cosine on unit vectors corresponds to sqrt(2-2*0.85) ≈ 0.548
	// euclidean distance; 0.55 keeps the clustering slightly permissive so
	// the mean-similarity refinement makes the final call.
	DefaultDedupEpsilon = 0.55

	DefaultWorkerConcurrency = 4
	DefaultDedupInterval     = 15 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.  It must be called
// after unmarshalling raw config data and before Validate() so that
// optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	// gRPC
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}
	if cfg.GRPC.GracefulTimeout == 0 {
		cfg.GRPC.GracefulTimeout = DefaultGRPCGracefulTimeout
	}

	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "sceniq"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// Neo4j
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.ConnectionTimeout == 0 {
		cfg.Neo4j.ConnectionTimeout = 5 * time.Second
	}
	if cfg.Neo4j.QueryTimeout == 0 {
		cfg.Neo4j.QueryTimeout = DefaultNeo4jQueryTimeout
	}
	if cfg.Neo4j.MaxConnectionPoolSize == 0 {
		cfg.Neo4j.MaxConnectionPoolSize = 50
	}

	// Redis
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "sceniq:"
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 24 * time.Hour
	}

	// Kafka
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.ScenarioTopic == "" {
		cfg.Kafka.ScenarioTopic = DefaultKafkaScenarioTopic
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// Milvus
	if cfg.Milvus.Addr == "" {
		cfg.Milvus.Addr = DefaultMilvusAddr
	}
	if cfg.Milvus.Collection == "" {
		cfg.Milvus.Collection = DefaultMilvusCollection
	}
	if cfg.Milvus.IndexType == "" {
		cfg.Milvus.IndexType = "HNSW"
	}
	if cfg.Milvus.HNSWM == 0 {
		cfg.Milvus.HNSWM = 16
	}
	if cfg.Milvus.HNSWEfConstruction == 0 {
		cfg.Milvus.HNSWEfConstruction = 200
	}
	if cfg.Milvus.SearchEf == 0 {
		cfg.Milvus.SearchEf = 64
	}
	if cfg.Milvus.CandidateLimit == 0 {
		cfg.Milvus.CandidateLimit = 200
	}

	// Embedding
	if cfg.Embedding.Backend == "" {
		cfg.Embedding.Backend = DefaultEmbeddingBackend
	}
	if cfg.Embedding.Dim == 0 {
		cfg.Embedding.Dim = DefaultEmbeddingDim
	}

	// Recommend — the four weights default as a unit; a partially-specified
	// weight set would silently fail the sum-to-1 validation otherwise.
	if cfg.Recommend.SemanticWeight == 0 && cfg.Recommend.GraphWeight == 0 &&
		cfg.Recommend.RuleWeight == 0 && cfg.Recommend.HistoricalWeight == 0 {
		cfg.Recommend.SemanticWeight = DefaultSemanticWeight
		cfg.Recommend.GraphWeight = DefaultGraphWeight
		cfg.Recommend.RuleWeight = DefaultRuleWeight
		cfg.Recommend.HistoricalWeight = DefaultHistoricalWeight
	}
	if cfg.Recommend.MaxHops == 0 {
		cfg.Recommend.MaxHops = DefaultMaxHops
	}
	if cfg.Recommend.DefaultTopK == 0 {
		cfg.Recommend.DefaultTopK = DefaultTopK
	}
	if cfg.Recommend.MaxTopK == 0 {
		cfg.Recommend.MaxTopK = DefaultMaxTopK
	}
	if cfg.Recommend.GraphTimeout == 0 {
		cfg.Recommend.GraphTimeout = DefaultGraphTimeout
	}

	// Dedup
	if cfg.Dedup.SimilarityThreshold == 0 {
		cfg.Dedup.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.Dedup.MinClusterSize == 0 {
		cfg.Dedup.MinClusterSize = DefaultMinClusterSize
	}
	if cfg.Dedup.Epsilon == 0 {
		cfg.Dedup.Epsilon = DefaultDedupEpsilon
	}

	// Worker
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.DedupInterval == 0 {
		cfg.Worker.DedupInterval = DefaultDedupInterval
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

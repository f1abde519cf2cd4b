// Package config provides configuration loading, defaults, and validation for
// the ScenarioIQ platform.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all platform settings.
const envPrefix = "SCENIQ"

// knownKeys lists every configuration key so that environment variables are
// visible to Unmarshal even when no config file supplies the key.  Viper only
// consults the environment for keys it already knows about.
var knownKeys = []string{
	"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
	"server.shutdown_timeout",
	"database.host", "database.port", "database.user", "database.password",
	"database.db_name", "database.ssl_mode", "database.max_conns",
	"database.min_conns", "database.conn_max_lifetime", "database.conn_max_idle_time",
	"database.migrations_path",
	"neo4j.uri", "neo4j.user", "neo4j.password", "neo4j.max_connection_pool_size",
	"neo4j.connection_timeout", "neo4j.query_timeout", "neo4j.database",
	"redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.min_idle_conns", "redis.dial_timeout", "redis.read_timeout",
	"redis.write_timeout", "redis.default_ttl", "redis.key_prefix",
	"kafka.brokers", "kafka.group_id", "kafka.scenario_topic",
	"grpc.host", "grpc.port", "grpc.debug", "grpc.graceful_timeout",
	"kafka.auto_offset_reset", "kafka.producer_retries", "kafka.batch_size",
	"milvus.addr", "milvus.db_name", "milvus.collection", "milvus.index_type",
	"milvus.hnsw_m", "milvus.hnsw_ef_construction", "milvus.search_ef",
	"milvus.candidate_limit",
	"embedding.backend", "embedding.dim", "embedding.cache_enabled",
	"recommend.semantic_weight", "recommend.graph_weight", "recommend.rule_weight",
	"recommend.historical_weight", "recommend.max_hops", "recommend.default_top_k",
	"recommend.max_top_k", "recommend.graph_timeout",
	"dedup.similarity_threshold", "dedup.min_cluster_size", "dedup.epsilon",
	"worker.concurrency", "worker.dedup_interval", "worker.max_retries",
	"worker.retry_backoff_ms",
	"log.level", "log.format",
}

// newViper builds a pre-configured Viper instance with the platform's standard
// settings: YAML file type, SCENIQ_ env prefix, automatic env binding, and a
// key replacer that maps "." → "_" so that nested keys like "database.host"
// resolve to "SCENIQ_DATABASE_HOST".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range knownKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at configPath, merges any SCENIQ_* environment
// variable overrides, applies platform defaults for unset fields, and
// validates the result.  It returns a fully-populated *Config or a
// descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from SCENIQ_* environment variables,
// with no config file required.  This is the preferred loading strategy for
// containerised (12-factor) deployments.
//
// Environment variable naming convention:
//
//	SCENIQ_<SECTION>_<FIELD>   e.g.  SCENIQ_DATABASE_HOST, SCENIQ_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	v := newViper()
	// No config file — rely solely on env vars and defaults.
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

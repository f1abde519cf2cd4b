package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a fully-defaulted config that passes Validate.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_DefaultedConfigIsValid(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"missing neo4j uri", func(c *Config) { c.Neo4j.URI = "" }, "neo4j.uri"},
		{"missing redis addr", func(c *Config) { c.Redis.Addr = "" }, "redis.addr"},
		{"no kafka brokers", func(c *Config) { c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"missing milvus addr", func(c *Config) { c.Milvus.Addr = "" }, "milvus.addr"},
		{"negative embedding dim", func(c *Config) { c.Embedding.Dim = -1 }, "embedding.dim"},
		{"unknown backend", func(c *Config) { c.Embedding.Backend = "hal9000" }, "embedding.backend"},
		{"weights do not sum to 1", func(c *Config) { c.Recommend.SemanticWeight = 0.5 }, "sum to 1"},
		{"negative weight", func(c *Config) {
			c.Recommend.SemanticWeight = 1.3
			c.Recommend.GraphWeight = -0.3
			c.Recommend.RuleWeight = 0
			c.Recommend.HistoricalWeight = 0
		}, "out of range"},
		{"negative max hops", func(c *Config) { c.Recommend.MaxHops = -1 }, "max_hops"},
		{"max_top_k below default", func(c *Config) { c.Recommend.MaxTopK = 1 }, "max_top_k"},
		{"threshold above 1", func(c *Config) { c.Dedup.SimilarityThreshold = 1.5 }, "similarity_threshold"},
		{"cluster size 1", func(c *Config) { c.Dedup.MinClusterSize = 1 }, "min_cluster_size"},
		{"negative epsilon", func(c *Config) { c.Dedup.Epsilon = -0.1 }, "epsilon"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.wantSub),
				"error %q should mention %q", err.Error(), tc.wantSub)
		})
	}
}

func TestValidate_WeightSumToleratesFloatError(t *testing.T) {
	cfg := validConfig()
	// 0.4+0.3+0.2+0.1 does not sum to exactly 1.0 in binary floating point.
	cfg.Recommend.SemanticWeight = 0.4
	cfg.Recommend.GraphWeight = 0.3
	cfg.Recommend.RuleWeight = 0.2
	cfg.Recommend.HistoricalWeight = 0.1
	assert.NoError(t, cfg.Validate())
}

package redis

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

// EmbeddingCache implements scenario.EmbeddingCache over Redis.  Entries are
// keyed by the description's content hash, so an edited scenario misses the
// cache without any invalidation traffic.
type EmbeddingCache struct {
	client *Client
	logger logging.Logger
}

// NewEmbeddingCache constructs the cache over an established client.
func NewEmbeddingCache(client *Client, logger logging.Logger) *EmbeddingCache {
	return &EmbeddingCache{client: client, logger: logger.Named("embedding_cache")}
}

func (c *EmbeddingCache) Get(ctx context.Context, contentHash string) ([]float32, bool, error) {
	raw, err := c.client.rdb.Get(ctx, c.client.key("emb:"+contentHash)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheError, "embedding cache read failed")
	}
	vec, err := decodeVector(raw)
	if err != nil {
		// A corrupt entry is treated as a miss; the caller recomputes and
		// overwrites it.
		c.logger.Warn("dropping corrupt embedding cache entry",
			logging.String("content_hash", contentHash), logging.Err(err))
		return nil, false, nil
	}
	return vec, true, nil
}

func (c *EmbeddingCache) Put(ctx context.Context, contentHash string, vec []float32) error {
	// SetNX keeps the first writer's value; identical inputs produce
	// identical vectors, so losing the race costs nothing.
	err := c.client.rdb.SetNX(ctx,
		c.client.key("emb:"+contentHash), encodeVector(vec), c.client.cfg.DefaultTTL).Err()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "embedding cache write failed")
	}
	return nil
}

// encodeVector serialises a vector as little-endian IEEE 754 float32 words.
func encodeVector(vec []float32) []byte {
	out := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
	}
	return out
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, errors.Newf(errors.ErrCodeCacheError, "vector payload length %d is not word aligned", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vec, nil
}

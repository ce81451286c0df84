package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// EmbeddingCache memoizes query embeddings in Redis so concurrent pipelines
// do not re-embed identical text. All methods are best-effort: a cache error
// never fails the caller.
type EmbeddingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEmbeddingCache builds a cache with the given entry lifetime.
func NewEmbeddingCache(client *redis.Client, ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EmbeddingCache{client: client, ttl: ttl}
}

// Get returns a cached vector for the text, if present.
func (c *EmbeddingCache) Get(ctx context.Context, text string) ([]float32, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, Key(text)).Bytes()
	if err != nil {
		return nil, false
	}
	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		return nil, false
	}
	return vector, true
}

// Set stores a vector for the text.
func (c *EmbeddingCache) Set(ctx context.Context, text string, vector []float32) {
	if c == nil || c.client == nil || len(vector) == 0 {
		return
	}
	raw, err := json.Marshal(vector)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, Key(text), raw, c.ttl).Err()
}

// Key derives the cache key for a text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + hex.EncodeToString(sum[:])
}

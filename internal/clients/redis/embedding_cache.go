package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/examify-backend/internal/logger"
)

// EmbeddingCache memoizes query embeddings so repeated questions skip the
// provider round-trip. Callers treat a nil cache as disabled.
type EmbeddingCache interface {
	Get(ctx context.Context, provider, taskType, text string) ([]float32, bool)
	Set(ctx context.Context, provider, taskType, text string, vec []float32)
	Close() error
}

type embeddingCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewEmbeddingCache(log *logger.Logger) (EmbeddingCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttl := 24 * time.Hour
	if v := strings.TrimSpace(os.Getenv("REDIS_EMBEDDING_TTL")); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			ttl = parsed
		}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &embeddingCache{
		log: log.With("service", "RedisEmbeddingCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *embeddingCache) Get(ctx context.Context, provider, taskType, text string) ([]float32, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey(provider, taskType, text)).Bytes()
	if err != nil {
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

func (c *embeddingCache) Set(ctx context.Context, provider, taskType, text string, vec []float32) {
	if c == nil || c.rdb == nil || len(vec) == 0 {
		return
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(provider, taskType, text), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Failed to cache embedding", "error", err)
	}
}

func (c *embeddingCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func cacheKey(provider, taskType, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + provider + ":" + taskType + ":" + hex.EncodeToString(sum[:])
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"pixiu/internal/models"
)

const (
	fundPageTTL    = 5 * time.Minute
	fundGenKey     = "pixiu:fund:gen"
	fundPagePrefix = "pixiu:fund:page"
)

// RedisService caches GET /fund aggregate responses. It is optional:
// when REDIS_URL is unset the handlers run without it and every read hits
// storage. Invalidation is generation-based — fund writes bump a counter
// that is part of every cache key, so stale pages simply stop being
// addressable and expire through their TTL.
type RedisService struct {
	client *redis.Client
}

// NewRedisService creates a new Redis service instance
func NewRedisService(redisURL string) (*RedisService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pool
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✅ Redis connection established")

	return &RedisService{client: client}, nil
}

// GetFundPage returns a cached page response for the given query key,
// or nil on a miss. Cache errors are treated as misses.
func (r *RedisService) GetFundPage(ctx context.Context, queryKey string) *models.PageResponse {
	key, err := r.pageKey(ctx, queryKey)
	if err != nil {
		return nil
	}

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}

	var response models.PageResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil
	}
	return &response
}

// SetFundPage caches a page response under the current generation.
func (r *RedisService) SetFundPage(ctx context.Context, queryKey string, response *models.PageResponse) {
	key, err := r.pageKey(ctx, queryKey)
	if err != nil {
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		return
	}

	if err := r.client.Set(ctx, key, data, fundPageTTL).Err(); err != nil {
		log.Printf("⚠️ Failed to cache fund page: %v", err)
	}
}

// InvalidateFund bumps the generation counter after a ledger write.
func (r *RedisService) InvalidateFund(ctx context.Context) {
	if err := r.client.Incr(ctx, fundGenKey).Err(); err != nil {
		log.Printf("⚠️ Failed to invalidate fund cache: %v", err)
	}
}

func (r *RedisService) pageKey(ctx context.Context, queryKey string) (string, error) {
	gen, err := r.client.Get(ctx, fundGenKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%s", fundPagePrefix, gen, queryKey), nil
}

// Close closes the Redis connection
func (r *RedisService) Close() error {
	return r.client.Close()
}

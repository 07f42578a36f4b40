package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/gridsense/wattkeeper/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyIngestCustomer = "energy:ingest:customer:%s"

// NewRedisClient builds the shared redis client, or nil when rate
// limiting is disabled or no address is configured.
func NewRedisClient(cfg config.Config) *redis.Client {
	limitCfg := cfg.RateLimit
	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if !limitCfg.Enabled || addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
}

// IngestLimiter throttles reading submissions per customer. A nil
// limiter allows everything.
type IngestLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewIngestLimiter(cfg config.Config, client *redis.Client) *IngestLimiter {
	if client == nil {
		return nil
	}
	limitCfg := cfg.RateLimit
	if limitCfg.IngestRate <= 0 || limitCfg.IngestBurst <= 0 {
		return nil
	}
	return &IngestLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.IngestRate,
		burst:  limitCfg.IngestBurst,
	}
}

func (l *IngestLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *IngestLimiter) Allow(ctx context.Context, customerID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyIngestCustomer, strings.TrimSpace(customerID))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}

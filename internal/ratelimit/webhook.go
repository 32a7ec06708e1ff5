package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/roomledger/internal/config"
)

const (
	keyWebhookEndpoint = "webhook:livekit"
	keyWebhookSource   = "webhook:livekit:source:%s"
)

// WebhookLimiter throttles webhook deliveries with a shared endpoint
// bucket plus a per-source bucket. A nil limiter allows everything, so
// the server can run without redis.
type WebhookLimiter struct {
	enabled bool

	bucket *TokenBucket

	rate  float64
	burst int
}

func NewWebhookLimiter(cfg config.Config) (*WebhookLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.WebhookRate <= 0 || limitCfg.WebhookBurst <= 0 {
		return nil, errors.New("webhook rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &WebhookLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.WebhookRate,
		burst:   limitCfg.WebhookBurst,
	}, nil
}

func (l *WebhookLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow checks the shared endpoint bucket and the caller's source bucket.
// Redis outages fail open: a delivery is never rejected because the
// limiter backend is unreachable.
func (l *WebhookLimiter) Allow(ctx context.Context, source string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}

	res, err := l.bucket.Allow(ctx, keyWebhookEndpoint, l.rate, l.burst)
	if err != nil {
		return true, err
	}
	if !res.Allowed {
		return false, nil
	}

	source = strings.TrimSpace(source)
	if source == "" {
		return true, nil
	}

	res, err = l.bucket.Allow(ctx, fmt.Sprintf(keyWebhookSource, source), l.rate, l.burst)
	if err != nil {
		return true, err
	}
	return res.Allowed, nil
}

package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"ekaa/internal/platform/metrics"
)

const revokedKeyPrefix = "ekaa:trl:jti:"

// RedisTRL shares revocation state between instances through Redis.
type RedisTRL struct {
	client  redis.UniversalClient
	metrics *metrics.Metrics
}

type RedisTRLOption func(*RedisTRL)

// WithMetrics records lookup latency.
func WithMetrics(m *metrics.Metrics) RedisTRLOption {
	return func(t *RedisTRL) {
		t.metrics = m
	}
}

func NewRedisTRL(client redis.UniversalClient, opts ...RedisTRLOption) *RedisTRL {
	t := &RedisTRL{client: client}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RevokeToken stores a marker key that Redis expires after ttl.
func (t *RedisTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	return t.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether the marker key still exists.
func (t *RedisTRL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	defer t.metrics.ObserveRevocationCheck("redis", time.Now())

	if jti == "" {
		return false, nil
	}
	err := t.client.Get(ctx, revokedKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

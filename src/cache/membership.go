// Package cache holds Redis read-through caches in front of the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"portfoliotracker/src/metrics"

	"github.com/redis/go-redis/v9"
	logger "github.com/sirupsen/logrus"
)

type Membership interface {
	InKcex(ctx context.Context, symbol string) (bool, error)
	KcexSymbols(ctx context.Context) ([]string, error)
}

// CachedMembership wraps the KCEX membership set with a Redis read-through
// cache. Redis failures fall back to the primary and are never returned.
type CachedMembership struct {
	primary Membership
	rdb     *redis.Client
	ttl     time.Duration
}

func NewCachedMembership(primary Membership, rdb *redis.Client, ttl time.Duration) *CachedMembership {
	return &CachedMembership{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// NewClient connects to cfg.RedisURL. It returns nil when caching is disabled.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// WrapMembership returns primary unchanged when rdb is nil.
func WrapMembership(primary Membership, rdb *redis.Client, ttl time.Duration) Membership {
	if rdb == nil {
		return primary
	}
	return NewCachedMembership(primary, rdb, ttl)
}

func (c *CachedMembership) InKcex(ctx context.Context, symbol string) (bool, error) {
	key := memberKey(symbol)
	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return val == "1", nil
	case err == redis.Nil:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		logger.WithError(err).WithField("key", key).Debug("membership cache read failed")
	}

	in, err := c.primary.InKcex(ctx, symbol)
	if err != nil {
		return false, err
	}

	flag := "0"
	if in {
		flag = "1"
	}
	c.rdb.Set(ctx, key, flag, c.ttl)
	return in, nil
}

func (c *CachedMembership) KcexSymbols(ctx context.Context) ([]string, error) {
	data, err := c.rdb.Get(ctx, symbolsKey).Bytes()
	if err == nil {
		var symbols []string
		if json.Unmarshal(data, &symbols) == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return symbols, nil
		}
	}
	if err == redis.Nil {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("error").Inc()
	}

	symbols, err := c.primary.KcexSymbols(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(symbols); err == nil {
		c.rdb.Set(ctx, symbolsKey, data, c.ttl)
	}
	return symbols, nil
}

const symbolsKey = "kcex:symbols"

func memberKey(symbol string) string { return fmt.Sprintf("kcex:member:%s", symbol) }

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"WhaleRadar/internal/domain/models"
	drepo "WhaleRadar/internal/domain/repository"
	pkgcache "WhaleRadar/pkg/cache"
)

// CachedSignals keeps the latest signal per symbol in a cache service,
// Redis in production and the in-memory cache when Redis is disabled.
type CachedSignals struct {
	cache pkgcache.Service
	ttl   time.Duration
}

// NewCachedSignals creates a signal cache with the given entry TTL.
func NewCachedSignals(cache pkgcache.Service, ttl time.Duration) drepo.SignalCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedSignals{cache: cache, ttl: ttl}
}

func signalKey(symbol string) string {
	return fmt.Sprintf("signal:latest:%s", symbol)
}

func (c *CachedSignals) Put(ctx context.Context, s *models.Signal) error {
	if s == nil {
		return fmt.Errorf("signal is nil")
	}
	return c.cache.Set(ctx, signalKey(s.Symbol), s, c.ttl)
}

// Latest returns the cached signal for a symbol, or (nil, nil) when
// none has been produced yet.
func (c *CachedSignals) Latest(ctx context.Context, symbol string) (*models.Signal, error) {
	var s models.Signal
	if err := c.cache.Get(ctx, signalKey(symbol), &s); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

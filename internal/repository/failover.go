package repository

import (
	"context"
	"sync/atomic"
	"time"

	"rentline/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverStore routes to the primary store until it errors, then serves
// from the fallback while retrying the primary once a minute.
type FailoverStore struct {
	primary   domain.Store
	fallback  domain.Store
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of the last failed primary call
}

func NewFailoverStore(primary, fallback domain.Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

const recoveryInterval = time.Minute

func (f *FailoverStore) primaryUsable() bool {
	if !f.isDown.Load() {
		return true
	}
	// Probe the primary again after the recovery interval.
	return time.Since(time.Unix(0, f.lastCheck.Load())) > recoveryInterval
}

func (f *FailoverStore) markDown(err error) {
	f.logger.Error().Err(err).Msg("Primary store failed, falling back to memory")
	f.isDown.Store(true)
	f.lastCheck.Store(time.Now().UnixNano())
}

func (f *FailoverStore) markUp() {
	if f.isDown.Swap(false) {
		f.logger.Info().Msg("Primary store recovered")
	}
}

func (f *FailoverStore) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if f.primaryUsable() {
		hit, err := f.primary.GetJSON(ctx, key, out)
		if err == nil {
			f.markUp()
			return hit, nil
		}
		f.markDown(err)
	}
	return f.fallback.GetJSON(ctx, key, out)
}

func (f *FailoverStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	if f.primaryUsable() {
		err := f.primary.SetJSON(ctx, key, value, ttl, tags...)
		if err == nil {
			f.markUp()
			return nil
		}
		f.markDown(err)
	}
	return f.fallback.SetJSON(ctx, key, value, ttl, tags...)
}

func (f *FailoverStore) InvalidateTag(ctx context.Context, tag string) error {
	// Invalidation must reach both stores; stale availability in either
	// would let a taken date range look free.
	var primaryErr error
	if f.primaryUsable() {
		primaryErr = f.primary.InvalidateTag(ctx, tag)
		if primaryErr == nil {
			f.markUp()
		} else {
			f.markDown(primaryErr)
		}
	}
	if err := f.fallback.InvalidateTag(ctx, tag); err != nil {
		return err
	}
	return primaryErr
}

func (f *FailoverStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if f.primaryUsable() {
		allowed, err := f.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			f.markUp()
			return allowed, nil
		}
		f.markDown(err)
	}
	return f.fallback.CheckRateLimit(ctx, key, limit, window)
}

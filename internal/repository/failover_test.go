package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

func (brokenStore) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	return false, errors.New("primary down")
}

func (brokenStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	return errors.New("primary down")
}

func (brokenStore) InvalidateTag(ctx context.Context, tag string) error {
	return errors.New("primary down")
}

func (brokenStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, errors.New("primary down")
}

func TestFailoverFallsBack(t *testing.T) {
	logger := zerolog.Nop()
	fallback := NewMemoryStore()
	store := NewFailoverStore(brokenStore{}, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "k", "v", time.Hour))

	var out string
	hit, err := store.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "v", out)

	allowed, err := store.CheckRateLimit(ctx, "client", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestFailoverPrefersHealthyPrimary(t *testing.T) {
	logger := zerolog.Nop()
	primary := NewMemoryStore()
	fallback := NewMemoryStore()
	store := NewFailoverStore(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "k", "primary-value", time.Hour))

	// The value must live in the primary, not the fallback.
	var out string
	hit, err := primary.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "primary-value", out)

	hit, _ = fallback.GetJSON(ctx, "k", &out)
	assert.False(t, hit)
}

func TestFailoverInvalidatesBothStores(t *testing.T) {
	logger := zerolog.Nop()
	primary := NewMemoryStore()
	fallback := NewMemoryStore()
	store := NewFailoverStore(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, primary.SetJSON(ctx, "a", 1, time.Hour, "grp"))
	require.NoError(t, fallback.SetJSON(ctx, "a", 1, time.Hour, "grp"))

	require.NoError(t, store.InvalidateTag(ctx, "grp"))

	var out int
	hit, _ := primary.GetJSON(ctx, "a", &out)
	assert.False(t, hit)
	hit, _ = fallback.GetJSON(ctx, "a", &out)
	assert.False(t, hit)
}

package repository

import (
	"context"
	"testing"
	"time"

	"rentline/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client), s
}

func TestRedisStoreCache(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		in := models.Equipment{ID: "eq-1", Name: "U35-4 Excavator", DailyRate: 350, Available: true}
		require.NoError(t, store.SetJSON(ctx, "equipment:list", in, time.Hour))

		var out models.Equipment
		hit, err := store.GetJSON(ctx, "equipment:list", &out)
		require.NoError(t, err)
		require.True(t, hit)
		assert.Equal(t, in, out)
	})

	t.Run("Miss", func(t *testing.T) {
		var out models.Equipment
		hit, err := store.GetJSON(ctx, "nope", &out)
		require.NoError(t, err)
		assert.False(t, hit)
	})
}

func TestRedisStoreTagInvalidation(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "availability:2025-09-01", true, time.Hour,
		models.TagEquipmentAvailability, "availability:2025-09-01:2025-09-04"))
	require.NoError(t, store.SetJSON(ctx, "availability:2025-10-01", true, time.Hour,
		models.TagEquipmentAvailability))
	require.NoError(t, store.SetJSON(ctx, "equipment:list", "cached", time.Hour))

	require.NoError(t, store.InvalidateTag(ctx, models.TagEquipmentAvailability))

	var out any
	hit, err := store.GetJSON(ctx, "availability:2025-09-01", &out)
	require.NoError(t, err)
	assert.False(t, hit, "tagged key should be gone")

	hit, err = store.GetJSON(ctx, "availability:2025-10-01", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	hit, err = store.GetJSON(ctx, "equipment:list", &out)
	require.NoError(t, err)
	assert.True(t, hit, "untagged key must survive")
}

func TestRedisStoreRateLimit(t *testing.T) {
	store, s := newTestRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := store.CheckRateLimit(ctx, "10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := store.CheckRateLimit(ctx, "10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "fourth request should be limited")

	// Another client is unaffected.
	allowed, err = store.CheckRateLimit(ctx, "10.0.0.2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Window expiry resets the counter.
	s.FastForward(2 * time.Minute)
	allowed, err = store.CheckRateLimit(ctx, "10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisStoreNilClient(t *testing.T) {
	store := NewRedisStore(nil)
	ctx := context.Background()

	_, err := store.GetJSON(ctx, "k", new(string))
	assert.Error(t, err)
	assert.Error(t, store.SetJSON(ctx, "k", "v", time.Minute))
	assert.Error(t, store.InvalidateTag(ctx, "t"))
	_, err = store.CheckRateLimit(ctx, "k", 1, time.Minute)
	assert.Error(t, err)
}

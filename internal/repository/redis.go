package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentline/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps cached upstream responses and rate-limit counters in
// Redis so they are shared across instances. Cached keys are grouped under
// tags (Redis sets) so a booking can invalidate whole groups at once.
type RedisStore struct {
	client *redis.Client
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if r.client == nil {
		return false, errors.New("redis client is nil")
	}
	val, err := r.client.Get(ctx, cacheKey(key)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	if r.client == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, cacheKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	for _, tag := range tags {
		if err := r.client.SAdd(ctx, tagKey(tag), cacheKey(key)).Err(); err != nil {
			return fmt.Errorf("failed to tag %s with %s: %w", key, tag, err)
		}
		// Tag sets outlive their members slightly; bound them anyway.
		r.client.Expire(ctx, tagKey(tag), 24*time.Hour)
	}
	return nil
}

func (r *RedisStore) InvalidateTag(ctx context.Context, tag string) error {
	if r.client == nil {
		return errors.New("redis client is nil")
	}
	members, err := r.client.SMembers(ctx, tagKey(tag)).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read tag %s: %w", tag, err)
	}
	if len(members) > 0 {
		if err := r.client.Del(ctx, members...).Err(); err != nil {
			return fmt.Errorf("failed to invalidate tag %s: %w", tag, err)
		}
	}
	if err := r.client.Del(ctx, tagKey(tag)).Err(); err != nil {
		return fmt.Errorf("failed to drop tag set %s: %w", tag, err)
	}
	return nil
}

func (r *RedisStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errors.New("redis client is nil")
	}
	counterKey := fmt.Sprintf("rate_limit:%s", key)
	count, err := r.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, counterKey, window)
	}

	return count <= int64(limit), nil
}

func cacheKey(key string) string { return "cache:" + key }
func tagKey(tag string) string   { return "tag:" + tag }

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}

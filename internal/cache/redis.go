// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// Redis implements Cache on a Redis server.
type Redis struct {
	client *redis.Client
}

// NewRedis connects a Redis-backed cache and verifies the connection.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	if addr == "" {
		return nil, oops.In("cache").Code("REDIS_ADDR_REQUIRED").Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // cleanup after failed ping; ping error takes precedence
		return nil, oops.In("cache").Code("REDIS_CONNECT_FAILED").With("addr", addr).Wrap(err)
	}
	return &Redis{client: client}, nil
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", oops.In("cache").Code("REDIS_GET_FAILED").With("key", key).Wrap(err)
	}
	return value, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return oops.In("cache").Code("REDIS_SET_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Delete implements Cache.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return oops.In("cache").Code("REDIS_DELETE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	if err := r.client.Close(); err != nil {
		return oops.In("cache").Code("REDIS_CLOSE_FAILED").Wrap(err)
	}
	return nil
}

var _ Cache = (*Redis)(nil)

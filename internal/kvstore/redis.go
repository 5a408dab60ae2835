// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// RedisStore is an ExpiringStore backed by Redis. It works against both
// a single node and a cluster.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore connects to Redis and verifies the connection with a
// ping before returning.
func NewRedisStore(ctx context.Context, addrs []string, password string, useCluster bool) (*RedisStore, error) {
	if len(addrs) == 0 {
		return nil, oops.Errorf("at least one redis address is required")
	}

	var client redis.UniversalClient
	if useCluster && len(addrs) > 1 {
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    addrs,
			Password: password,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     addrs[0],
			Password: password,
			DB:       0,
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("KV_CONNECT_FAILED").
			With("addrs", addrs).
			Wrap(err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, oops.Code("KV_NOT_FOUND").With("key", key).Wrap(ErrNotFound)
		}
		return nil, oops.Code("KV_GET_FAILED").With("key", key).Wrap(err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

func (s *RedisStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return oops.Code("KV_SET_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return oops.Code("KV_DELETE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ ExpiringStore = (*RedisStore)(nil)

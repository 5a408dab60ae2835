// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/tutordesk/tutordesk/internal/auth"
	"github.com/tutordesk/tutordesk/internal/auth/kv"
	authpg "github.com/tutordesk/tutordesk/internal/auth/postgres"
	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/kvstore"
	"github.com/tutordesk/tutordesk/internal/store"
)

// backendStores bundles the storage implementations selected by the
// configured backend, plus a cleanup hook for whatever was opened.
type backendStores struct {
	credentials auth.CredentialStore
	challenges  auth.ChallengeStore
	sessions    auth.SessionStore
	close       func()
}

// buildStores wires up storage for the configured backend.
//
// The memory backend keeps everything in-process. The redis backend
// keeps everything in Redis behind a retrying wrapper. The postgres
// backend keeps credentials in PostgreSQL; challenges and sessions go
// to Redis when addresses are configured, memory otherwise.
func buildStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backendStores, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		mem := kvstore.NewMemoryStore()
		return newKVStores(mem, func() {})

	case config.BackendRedis:
		redisStore, err := kvstore.NewRedisStore(ctx, cfg.RedisAddrs, cfg.RedisPassword, cfg.RedisCluster)
		if err != nil {
			return nil, err
		}
		resilient, err := kvstore.NewResilient(redisStore)
		if err != nil {
			closeQuietly(redisStore, logger)
			return nil, err
		}
		return newKVStores(resilient, func() { closeQuietly(redisStore, logger) })

	case config.BackendPostgres:
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		creds, err := authpg.NewCredentialRepository(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}

		if len(cfg.RedisAddrs) == 0 {
			mem := kvstore.NewMemoryStore()
			kvs, err := newKVStores(mem, func() { pool.Close() })
			if err != nil {
				pool.Close()
				return nil, err
			}
			kvs.credentials = creds
			return kvs, nil
		}

		redisStore, err := kvstore.NewRedisStore(ctx, cfg.RedisAddrs, cfg.RedisPassword, cfg.RedisCluster)
		if err != nil {
			pool.Close()
			return nil, err
		}
		resilient, err := kvstore.NewResilient(redisStore)
		if err != nil {
			closeQuietly(redisStore, logger)
			pool.Close()
			return nil, err
		}
		kvs, err := newKVStores(resilient, func() {
			closeQuietly(redisStore, logger)
			pool.Close()
		})
		if err != nil {
			closeQuietly(redisStore, logger)
			pool.Close()
			return nil, err
		}
		kvs.credentials = creds
		return kvs, nil

	default:
		return nil, oops.Code("CONFIG_INVALID").
			With("backend", cfg.Backend).
			Errorf("unrecognized backend %q", cfg.Backend)
	}
}

// newKVStores builds all three stores on one key-value store.
func newKVStores(s kvstore.Store, closeFn func()) (*backendStores, error) {
	creds, err := kv.NewCredentialStore(s)
	if err != nil {
		return nil, err
	}
	challenges, err := kv.NewChallengeStore(s)
	if err != nil {
		return nil, err
	}
	sessions, err := kv.NewSessionStore(s)
	if err != nil {
		return nil, err
	}
	return &backendStores{
		credentials: creds,
		challenges:  challenges,
		sessions:    sessions,
		close:       closeFn,
	}, nil
}

func closeQuietly(s *kvstore.RedisStore, logger *slog.Logger) {
	if err := s.Close(); err != nil {
		logger.Warn("error closing redis client", "error", err)
	}
}

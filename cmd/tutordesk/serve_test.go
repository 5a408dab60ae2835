// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/pkg/errutil"
)

func TestRunServe_MemoryBackendLifecycle(t *testing.T) {
	cfg := config.Default()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.LogFormat = "text"

	ctx, cancel := context.WithCancel(context.Background())

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	done := make(chan error, 1)
	go func() {
		done <- runServe(ctx, cfg, cmd)
	}()

	// Give the servers a moment to come up, then trigger shutdown.
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not shut down after context cancellation")
	}

	assert.Contains(t, out.String(), "Portal service started")
}

func TestRunServe_MetricsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.MetricsAddr = ""
	cfg.LogFormat = "text"

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- runServe(ctx, cfg, &cobra.Command{})
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not shut down after context cancellation")
	}
}

func TestBuildStores_RejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "etcd"

	_, err := buildStores(context.Background(), cfg, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

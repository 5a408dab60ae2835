// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tutordesk/tutordesk/internal/auth"
	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/seed"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	file    string
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Provision accounts from a seed file",
		Long: `Creates the accounts listed in a YAML seed file.
This command is idempotent - accounts that already exist are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.file, "file", "", "path to the seed YAML file (required)")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for storage operations (e.g., 30s, 1m)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, seedCfg *seedConfig) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}
	if cfg.Backend == config.BackendMemory {
		return oops.Code("CONFIG_INVALID").
			Errorf("the memory backend keeps no state between runs and cannot be seeded")
	}

	f, err := seed.Load(seedCfg.file)
	if err != nil {
		return err
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), seedCfg.timeout)
	defer cancel()

	logger := slog.Default()
	cmd.Println("Connecting to storage...")
	stores, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.close()

	svc, err := auth.NewService(stores.credentials, auth.NewArgon2idHasher())
	if err != nil {
		return err
	}

	res, err := seed.Apply(ctx, f, svc, logger)
	if err != nil {
		return err
	}

	cmd.Printf("Seeding complete: %d created, %d skipped\n", res.Created, res.Skipped)
	return nil
}

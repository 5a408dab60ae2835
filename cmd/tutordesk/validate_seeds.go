// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tutordesk/tutordesk/internal/seed"
)

// NewValidateSeedsCmd creates the validate-seeds subcommand.
func NewValidateSeedsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-seeds <file>...",
		Short: "Validate seed files without touching storage",
		Long: `Validates seed YAML files against the seed schema.
Does NOT start the server or require a database connection.
Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines to catch seed file errors early:
  tutordesk validate-seeds seeds/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidateSeeds(args)
		},
	}
}

func runValidateSeeds(paths []string) error {
	var failures []string
	for _, path := range paths {
		data, err := os.ReadFile(path) //nolint:gosec // paths come from the operator
		if err != nil {
			failures = append(failures, fmt.Sprintf("  %s: %v", path, err))
			continue
		}
		if err := seed.ValidateSchema(data); err != nil {
			failures = append(failures, fmt.Sprintf("  %s: %s", path, seed.FormatSchemaError(err)))
		}
	}

	if len(failures) > 0 {
		for _, f := range failures {
			slog.Error("seed validation failed", "detail", f)
		}
		return fmt.Errorf("validation failed: %d of %d seed files invalid", len(failures), len(paths))
	}

	slog.Info("all seed files valid", "count", len(paths))
	return nil
}

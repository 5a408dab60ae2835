// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the TutorDesk CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tutordesk",
		Short: "TutorDesk - tutoring center portal authentication service",
		Long: `TutorDesk runs the authentication service of a tutoring center
portal: password logins, one-time passcode logins for administrators,
and per-browser sessions.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewValidateSeedsCmd())

	return cmd
}

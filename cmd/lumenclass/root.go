package main

import (
	"github.com/spf13/cobra"

	"github.com/lumenclass/lumenclass/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// resolveConfigPath returns the explicit --config path, or the default
// location under the user config directory. A missing default file is
// not an error; config.Load skips it.
func resolveConfigPath() string {
	if configFile != "" {
		return configFile
	}
	return xdg.DefaultConfigPath()
}

// NewRootCmd creates the root command for the LumenClass CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lumenclass",
		Short: "LumenClass - request authorization for education workspaces",
		Long: `LumenClass runs the authorization backend for an education platform:
session resolution, workspace role and permission checks, two-factor
gating, and subscription enforcement for every incoming API request.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// Package cmd provides the CLI commands for graphquery.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/graphquery/internal/config"
	"github.com/Aman-CERP/graphquery/internal/logging"
	"github.com/Aman-CERP/graphquery/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the graphquery CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graphquery",
		Short: "Query coordinator for composable index graphs",
		Long: `graphquery routes queries across a graph of named sub-indices.

A graph definition names a root index and any number of sub-indices
(vector or keyword). Documents can reference other indices; at query
time those references are expanded recursively, so one query can draw
answers from the whole graph.

Define a graph in YAML, then query it or serve it over MCP.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("graphquery version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = teardownLogging

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupLogging applies the configured log level and file. The --debug flag
// wins over configuration. A config load failure here is not fatal; the
// command that needs the config reports it with context.
func setupLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	if cwd, err := os.Getwd(); err == nil {
		if cfg, err := config.Load(cwd); err == nil {
			logCfg.Level = cfg.Server.LogLevel
			logCfg.FilePath = cfg.Server.LogFile
		}
	}
	if debugMode {
		logCfg.Level = "debug"
	}
	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

// dataDir overrides paths.data from .mcc4mcc.yaml for every command.
var dataDir string

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcc4mcc",
		Short: "mcc4mcc - verification tool selector for the Model Checking Contest",
		Long: `mcc4mcc picks the verification tools most likely to answer an examination
on a Petri net model, and runs them one after the other until one succeeds.

Training data is extracted from past contest results with "extract", and
used by "run" to select and execute tools packaged as Docker images.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&dataDir, "data", "", "Directory holding results, characteristics and artifacts (default: paths.data)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newExtractCommand())
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newTestCommand())
	cmd.AddCommand(newHistoryCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

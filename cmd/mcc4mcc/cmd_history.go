package main

import (
	"fmt"

	"github.com/mcc4mcc/mcc4mcc/internal/report"
	"github.com/spf13/cobra"
)

var historyLimit int

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent selection runs",
		Long: `List the most recent runs recorded by "run" in the history database,
newest first, with their outcome and the tool that answered.`,
		Args: cobra.NoArgs,
		RunE: historyCommandE,
	}

	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")

	return cmd
}

func historyCommandE(cmd *cobra.Command, _ []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("invalid limit %d: must be positive", historyLimit)
	}
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	h, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer h.Close() //nolint:errcheck

	runs, err := h.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.") //nolint:errcheck
		return nil
	}
	return report.WriteRuns(cmd.OutOrStdout(), runs)
}

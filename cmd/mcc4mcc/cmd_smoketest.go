package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcc4mcc/mcc4mcc/internal/report"
	"github.com/mcc4mcc/mcc4mcc/internal/results"
	"github.com/mcc4mcc/mcc4mcc/internal/smoketest"
	"github.com/spf13/cobra"
)

var (
	testResults         string
	testCharacteristics string
	testYear            int
	testModels          string
	testTool            string
	testExamination     string
	testInstance        string
	testExclude         []string
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check that every tool image runs",
		Long: `Run each tool once per examination on the instance it solved the fastest
in the results, to check that its Docker image works.

Models are read from <models>/<instance>.tgz. Exits with 1 when a tool fails.`,
		Args: cobra.NoArgs,
		RunE: testCommandE,
	}

	cmd.Flags().StringVar(&testResults, "results", "", "Results CSV file (default: paths.results)")
	cmd.Flags().StringVar(&testCharacteristics, "characteristics", "", "Model characteristics CSV file (default: paths.characteristics)")
	cmd.Flags().IntVar(&testYear, "year", 0, "Only keep results of this contest year (default: all years)")
	cmd.Flags().StringVar(&testModels, "models", "", "Directory of model archives (default: paths.models)")
	cmd.Flags().StringVar(&testTool, "tool", "", "Only test this tool")
	cmd.Flags().StringVar(&testExamination, "examination", "", "Only test this examination")
	cmd.Flags().StringVar(&testInstance, "instance", "", "Test on this instance instead of the fastest solved one")
	cmd.Flags().StringArrayVar(&testExclude, "exclude", nil, "Tool excluded from the results (can be repeated)")

	return cmd
}

func testCommandE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := loadDataset(cfg, testResults, testCharacteristics, results.Config{
		Year:     testYear,
		Exclude:  testExclude,
		Renaming: cfg.Renaming,
	})
	if err != nil {
		return err
	}

	runner := smoketest.NewRunner(newExecutor(cfg), slog.Default())
	res, err := runner.Run(ctx, ds, smoketest.Config{
		Models:          dataPath(cfg, firstNonEmpty(testModels, cfg.Paths.Models)),
		Examination:     testExamination,
		Tool:            testTool,
		Instance:        testInstance,
		TimeConfinement: cfg.Execution.TimeConfinement,
	})
	if werr := report.WriteSmokeTests(cmd.OutOrStdout(), res); werr != nil {
		return fmt.Errorf("writing smoke tests: %w", werr)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range res {
		if !r.Passed && !r.Skipped {
			failed++
		}
	}
	if failed > 0 {
		return &TestFailureError{Message: fmt.Sprintf("%d of %d smoke tests failed", failed, len(res))}
	}
	return nil
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mcc4mcc/mcc4mcc/internal/artifacts"
	"github.com/mcc4mcc/mcc4mcc/internal/dataset"
	"github.com/mcc4mcc/mcc4mcc/internal/projectconfig"
	"github.com/mcc4mcc/mcc4mcc/internal/report"
	"github.com/mcc4mcc/mcc4mcc/internal/results"
	"github.com/mcc4mcc/mcc4mcc/internal/spinner"
	"github.com/mcc4mcc/mcc4mcc/internal/training"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	extractResults         string
	extractCharacteristics string
	extractYear            int
	extractDuplicates      bool
	extractForget          []string
	extractExclude         []string
	extractAlgorithms      []string
	extractExportDB        bool
)

func newExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract known and learned data from contest results",
		Long: `Extract known and learned data from the results of a past contest.

Runs are read from the results CSV, joined with the model characteristics,
normalized, and used to train the predictors. The artifacts are written to
the data directory (or the configured blob container) under a prefix derived
from --forget and --exclude, so that "run" can find them.`,
		Args: cobra.NoArgs,
		RunE: extractCommandE,
	}

	cmd.Flags().StringVar(&extractResults, "results", "", "Results CSV file (default: paths.results)")
	cmd.Flags().StringVar(&extractCharacteristics, "characteristics", "", "Model characteristics CSV file (default: paths.characteristics)")
	cmd.Flags().IntVar(&extractYear, "year", 0, "Only keep results of this contest year (default: all years)")
	cmd.Flags().BoolVar(&extractDuplicates, "duplicates", false, "Keep duplicate training samples")
	cmd.Flags().StringArrayVar(&extractForget, "forget", nil, "Characteristic left out of learning (can be repeated)")
	cmd.Flags().StringArrayVar(&extractExclude, "exclude", nil, "Tool excluded from the results (can be repeated)")
	cmd.Flags().StringArrayVar(&extractAlgorithms, "algorithm", nil, "Learning algorithm to train (can be repeated, default: all)")
	cmd.Flags().BoolVar(&extractExportDB, "export-db", false, "Also export the normalized results to the history database")

	return cmd
}

func extractCommandE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := slog.Default()

	ds, err := loadDataset(cfg, extractResults, extractCharacteristics, results.Config{
		Year:     extractYear,
		Exclude:  extractExclude,
		Renaming: cfg.Renaming,
	})
	if err != nil {
		return err
	}
	logger.Info("Normalized results",
		"records", len(ds.Records),
		"examinations", len(ds.Examinations()),
		"tools", len(ds.Tools()),
		"techniques", ds.Techniques.Len())

	stop := spinner.StartOnTerminal(os.Stderr, "Training")
	knowledge, err := training.NewReferenceTrainer(logger).Train(ctx, ds, training.Options{
		Forget:     extractForget,
		Duplicates: extractDuplicates,
		Algorithms: extractAlgorithms,
	})
	stop()
	if err != nil {
		return err
	}
	logger.Info("Maximum score", "score", knowledge.MaxScore)

	rankings := report.Rankings(knowledge.Scores, ds.Examinations())
	if err := report.WriteScores(cmd.OutOrStdout(), rankings, knowledge.MaxScore); err != nil {
		return fmt.Errorf("writing scores: %w", err)
	}

	store, err := openArtifactStore(cfg)
	if err != nil {
		return err
	}
	prefix := artifacts.Fingerprint(extractForget, extractExclude)
	if err := artifacts.Save(ctx, store, prefix, knowledge); err != nil {
		return err
	}
	logger.Info("Saved artifacts", "prefix", prefix, "tool", "mcc4mcc-"+prefix)

	if extractExportDB {
		h, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer h.Close() //nolint:errcheck
		if err := h.ExportDataset(ctx, ds); err != nil {
			return err
		}
		logger.Info("Exported results", "database", dataPath(cfg, cfg.Paths.History))
	}
	return nil
}

// loadDataset reads the characteristics and results files concurrently and
// normalizes the results.
func loadDataset(cfg *projectconfig.ProjectConfig, resultsFlag, characteristicsFlag string, rc results.Config) (*results.Dataset, error) {
	resultsPath := dataPath(cfg, firstNonEmpty(resultsFlag, cfg.Paths.Results))
	characteristicsPath := dataPath(cfg, firstNonEmpty(characteristicsFlag, cfg.Paths.Characteristics))

	var (
		chars dataset.Characteristics
		rows  []dataset.RawResult
		g     errgroup.Group
	)
	stop := spinner.StartOnTerminal(os.Stderr, "Reading results")
	g.Go(func() error {
		var err error
		chars, err = dataset.LoadCharacteristics(characteristicsPath)
		if err != nil {
			return fmt.Errorf("reading characteristics: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rows, err = dataset.LoadResults(resultsPath)
		if err != nil {
			return fmt.Errorf("reading results: %w", err)
		}
		return nil
	})
	err := g.Wait()
	stop()
	if err != nil {
		return nil, err
	}
	slog.Info("Read results", "rows", len(rows), "models", len(chars))

	return results.Normalize(rows, chars, rc, slog.Default())
}

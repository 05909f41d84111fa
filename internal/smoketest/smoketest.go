// Package smoketest runs each tool once on the instance it solved fastest,
// to check that its container image works.
package smoketest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/mcc4mcc/mcc4mcc/internal/execution"
	"github.com/mcc4mcc/mcc4mcc/internal/modelinput"
	"github.com/mcc4mcc/mcc4mcc/internal/results"
)

// ArchiveExt is the extension of model archives in the models directory.
const ArchiveExt = ".tgz"

// Config narrows the tests and locates the models.
type Config struct {
	// Models is the directory holding <instance>.tgz archives.
	Models string
	// Examination, Tool and Instance restrict the tests when set.
	Examination     string
	Tool            string
	Instance        string
	TimeConfinement int
}

// Result is the outcome of one (examination, tool) test.
type Result struct {
	Examination string
	Tool        string
	Instance    string
	Passed      bool
	// Skipped is set when the tool has no recorded instance to test on.
	Skipped bool
	Err     error
}

// Runner executes smoke tests.
type Runner struct {
	executor execution.Executor
	logger   *slog.Logger
}

// NewRunner creates a runner using executor.
func NewRunner(executor execution.Executor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{executor: executor, logger: logger}
}

// Run tests every (examination, tool) pair of ds, in name order.
func (r *Runner) Run(ctx context.Context, ds *results.Dataset, cfg Config) ([]Result, error) {
	examinations := ds.Examinations()
	if cfg.Examination != "" {
		examinations = []string{cfg.Examination}
	}
	tools := ds.Tools()
	if cfg.Tool != "" {
		tools = []string{cfg.Tool}
	}

	var out []Result
	for _, exam := range examinations {
		for _, tool := range tools {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			out = append(out, r.test(ctx, ds, cfg, exam, tool))
		}
	}
	return out, nil
}

func (r *Runner) test(ctx context.Context, ds *results.Dataset, cfg Config, exam, tool string) Result {
	res := Result{Examination: exam, Tool: tool, Instance: cfg.Instance}
	if res.Instance == "" {
		res.Instance = fastestInstance(ds, exam, tool)
	}
	logger := r.logger.With("examination", exam, "tool", tool)
	if res.Instance == "" {
		logger.Warn("No test for tool")
		res.Skipped = true
		return res
	}
	logger = logger.With("instance", res.Instance)
	logger.Info("Testing tool")

	in, err := modelinput.Resolve(filepath.Join(cfg.Models, res.Instance+ArchiveExt), res.Instance)
	if err != nil {
		logger.Warn("Cannot resolve model", "error", err)
		res.Err = err
		return res
	}
	defer func() {
		if err := in.Close(); err != nil {
			logger.Warn("Failed to remove extracted model", "error", err)
		}
	}()

	run, err := r.executor.Run(ctx, &execution.Request{
		Tool:            tool,
		Examination:     exam,
		Instance:        res.Instance,
		Dir:             in.Dir,
		TimeConfinement: cfg.TimeConfinement,
		Output:          func(line string) { logger.Info(line) },
	})
	switch {
	case errors.Is(err, execution.ErrImageNotFound):
		logger.Warn("Docker image does not exist")
		res.Err = err
	case err != nil:
		logger.Error("Tool execution failed", "error", err)
		res.Err = err
	case run == nil:
		res.Err = fmt.Errorf("executor returned no result for %s", tool)
	default:
		res.Passed = run.Success()
	}
	return res
}

// fastestInstance returns the instance on which tool answered exam in the
// least time, or "" when it never did.
func fastestInstance(ds *results.Dataset, exam, tool string) string {
	candidates := ds.Filter(func(rec *results.Record) bool {
		return rec.Examination == exam && rec.Tool == tool
	}).Records
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Time < candidates[j].Time
	})
	return candidates[0].Instance
}

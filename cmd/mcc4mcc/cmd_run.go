package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mcc4mcc/mcc4mcc/internal/artifacts"
	"github.com/mcc4mcc/mcc4mcc/internal/history"
	"github.com/mcc4mcc/mcc4mcc/internal/hooks"
	"github.com/mcc4mcc/mcc4mcc/internal/modelinput"
	"github.com/mcc4mcc/mcc4mcc/internal/selection"
	"github.com/spf13/cobra"
)

// Environment variables set by the contest harness.
const (
	envTool        = "BK_TOOL"
	envInput       = "BK_INPUT"
	envExamination = "BK_EXAMINATION"
)

// Run outcomes recorded in history and passed to after_run hooks.
const (
	outcomeSuccess       = "success"
	outcomeCannotCompute = "cannot_compute"
	outcomeDoNotCompete  = "do_not_compete"
	outcomeError         = "error"
)

var (
	runInput           string
	runInstance        string
	runExamination     string
	runTool            string
	runAlgorithm       string
	runPrefix          string
	runPolicy          string
	runTimeConfinement int
	runNoHistory       bool
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Select and run verification tools on a model",
		Long: `Select the verification tools for an examination on a model, and run them
one after the other until one succeeds.

The input is a model directory, a .tgz archive, or a directory wrapping one
of them. Unless given by flags, the examination and instance are read from
BK_EXAMINATION and BK_INPUT. BK_TOOL selects the policy: mcc4mcc-cheat runs
the historically best tools, mcc4mcc-mix falls back to the prediction when
there are none, and mcc4mcc-<prefix> runs the prediction of the artifacts
trained under <prefix>.

Exits with 1 when every tool failed and 3 when no tool could be selected.`,
		Args: cobra.NoArgs,
		RunE: runCommandE,
	}

	cmd.Flags().StringVar(&runInput, "input", "", "Model directory or archive (default: working directory)")
	cmd.Flags().StringVar(&runInstance, "instance", "", "Instance name (default: $BK_INPUT, then derived from the input)")
	cmd.Flags().StringVar(&runExamination, "examination", "", "Examination to answer (default: $BK_EXAMINATION)")
	cmd.Flags().StringVar(&runTool, "tool", "", "Force the tool to run")
	cmd.Flags().StringVar(&runAlgorithm, "algorithm", "", "Force the learning algorithm (default: best scoring for the examination)")
	cmd.Flags().StringVar(&runPrefix, "prefix", "", "Artifact prefix (default: from $BK_TOOL, then trained with no --forget and no --exclude)")
	cmd.Flags().StringVar(&runPolicy, "policy", "", "Selection policy: learned, known or mix (default: from $BK_TOOL)")
	cmd.Flags().IntVar(&runTimeConfinement, "time-confinement", 0, "Time confinement in seconds passed to tools (default: execution.time_confinement)")
	cmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Do not record the run in the history database")

	return cmd
}

// runSettings are the run flags merged with the harness environment.
type runSettings struct {
	input       string
	instance    string
	examination string
	prefix      string
	policy      selection.Policy
}

func resolveRunSettings(getenv func(string) string) (*runSettings, error) {
	s := &runSettings{
		input:       runInput,
		instance:    firstNonEmpty(runInstance, getenv(envInput)),
		examination: firstNonEmpty(runExamination, getenv(envExamination)),
		prefix:      runPrefix,
	}
	if s.examination == "" {
		return nil, fmt.Errorf("no examination: use --examination or set %s", envExamination)
	}
	if s.input == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		s.input = wd
	}

	mode := getenv(envTool)
	s.policy = selection.ParsePolicy(mode)
	if runPolicy != "" {
		p, err := selection.LookupPolicy(runPolicy)
		if err != nil {
			return nil, err
		}
		s.policy = p
	}
	if s.prefix == "" {
		if p, ok := selection.PrefixFromSignal(mode); ok {
			s.prefix = p
		} else {
			s.prefix = artifacts.DefaultPrefix()
		}
	}
	return s, nil
}

func runCommandE(cmd *cobra.Command, _ []string) error {
	settings, err := resolveRunSettings(os.Getenv)
	if err != nil {
		return err
	}
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := slog.Default().With("examination", settings.examination)

	store, err := openArtifactStore(cfg)
	if err != nil {
		return err
	}
	knowledge, err := loadKnowledge(ctx, store, settings.prefix, logger)
	if err != nil {
		return err
	}

	in, err := modelinput.Resolve(settings.input, settings.instance)
	if err != nil {
		return err
	}
	defer func() {
		if err := in.Close(); err != nil {
			logger.Warn("Failed to remove extracted model", "error", err)
		}
	}()
	logger.Info("Resolved input", "instance", in.Instance, "model", in.Model, "dir", in.Dir)

	env := map[string]string{
		"MCC4MCC_EXAMINATION": settings.examination,
		"MCC4MCC_INSTANCE":    in.Instance,
		"MCC4MCC_MODEL":       in.Model,
		"MCC4MCC_DIR":         in.Dir,
	}
	hookRunner := hooks.NewRunner(logger)
	if err := hookRunner.Execute(ctx, "before_run", cfg.Hooks.BeforeRun, env); err != nil {
		return err
	}

	opts := []selection.Option{selection.WithLogger(logger), selection.WithOutput(cmd.OutOrStdout())}
	var run *history.Run
	if !runNoHistory {
		// History is best effort: failing to record never fails the run.
		h, err := openHistory(cfg)
		if err != nil {
			logger.Warn("History disabled", "error", err)
		} else {
			defer h.Close() //nolint:errcheck
			run, err = h.StartRun(ctx, history.RunInfo{
				Examination: settings.examination,
				Instance:    in.Instance,
				Policy:      settings.policy,
				Prefix:      settings.prefix,
			})
			if err != nil {
				logger.Warn("Failed to record run", "error", err)
				run = nil
			} else {
				opts = append(opts, selection.WithRecorder(run))
			}
		}
	}

	timeConfinement := runTimeConfinement
	if timeConfinement <= 0 {
		timeConfinement = cfg.Execution.TimeConfinement
	}
	engine, err := selection.New(selection.Config{
		Policy:          settings.policy,
		Examination:     settings.examination,
		Instance:        in.Instance,
		Tool:            runTool,
		Algorithm:       runAlgorithm,
		TimeConfinement: timeConfinement,
	}, knowledge, newExecutor(cfg), opts...)
	if err != nil {
		return err
	}

	outcome, runErr := engine.RunInput(ctx, in)
	label := outcomeOf(runErr)
	tool := ""
	if outcome != nil {
		tool = outcome.Tool
	}
	if run != nil {
		// The run is finished even when it was interrupted.
		if err := run.Finish(context.WithoutCancel(ctx), label, tool); err != nil {
			logger.Warn("Failed to record run", "error", err)
		}
	}

	env["MCC4MCC_OUTCOME"] = label
	env["MCC4MCC_TOOL"] = tool
	if outcome != nil {
		env["MCC4MCC_ATTEMPTS"] = strconv.Itoa(len(outcome.Attempts))
	}
	if err := hookRunner.Execute(context.WithoutCancel(ctx), "after_run", cfg.Hooks.AfterRun, env); err != nil && runErr == nil {
		return err
	}
	return runErr
}

// loadKnowledge loads the artifacts stored under prefix. Missing artifacts
// are tolerated when a tool is forced, since nothing needs to be selected.
func loadKnowledge(ctx context.Context, store artifacts.Store, prefix string, logger *slog.Logger) (*selection.Knowledge, error) {
	art, err := artifacts.Load(ctx, store, prefix)
	switch {
	case errors.Is(err, artifacts.ErrNotFound) && runTool != "":
		logger.Warn("No artifacts, running the forced tool only", "prefix", prefix)
		return &selection.Knowledge{}, nil
	case errors.Is(err, artifacts.ErrNotFound):
		return nil, fmt.Errorf("no artifacts for prefix %s, run extract first: %w", prefix, err)
	case err != nil:
		return nil, err
	}
	return &selection.Knowledge{
		Known:      art.Known,
		Scores:     art.Scores,
		Values:     art.Values,
		Predictors: artifacts.Predictors{Store: store, Prefix: prefix},
	}, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, selection.ErrCannotCompute):
		return outcomeCannotCompute
	case errors.Is(err, selection.ErrDoNotCompete):
		return outcomeDoNotCompete
	default:
		return outcomeError
	}
}

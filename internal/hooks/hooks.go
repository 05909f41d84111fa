// Package hooks runs user-configured commands around a selection run.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"sort"
	"strings"
)

// HookConfig defines a single hook command.
type HookConfig struct {
	Command          string `yaml:"command" json:"command"`
	WorkingDirectory string `yaml:"working_directory,omitempty" json:"working_directory,omitempty"`
	ExitCodes        []int  `yaml:"exit_codes,omitempty" json:"exit_codes,omitempty"`
	ErrorOnFail      bool   `yaml:"error_on_fail,omitempty" json:"error_on_fail,omitempty"`
}

// HooksConfig holds the hooks run before and after a selection run.
type HooksConfig struct {
	BeforeRun []HookConfig `yaml:"before_run,omitempty" json:"before_run,omitempty"`
	AfterRun  []HookConfig `yaml:"after_run,omitempty" json:"after_run,omitempty"`
}

// Runner executes hook commands at lifecycle points.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a runner logging hook output at debug level.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// Execute runs all hooks for a given lifecycle point. name identifies the
// lifecycle point (e.g. "before_run") for logging and error context. env is
// added to the environment of every hook.
func (r *Runner) Execute(ctx context.Context, name string, hooks []HookConfig, env map[string]string) error {
	for i, h := range hooks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("hook %s: context canceled: %w", name, err)
		}
		if err := r.runHook(ctx, name, i, h, env); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runHook(ctx context.Context, name string, index int, h HookConfig, env map[string]string) error {
	if strings.TrimSpace(h.Command) == "" {
		return fmt.Errorf("hook %s[%d]: empty command", name, index)
	}

	parts := strings.Fields(h.Command)
	//nolint:gosec // hook commands come from the project configuration, not untrusted input
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	if h.WorkingDirectory != "" {
		cmd.Dir = h.WorkingDirectory
	}
	cmd.Env = append(os.Environ(), environ(env)...)

	logger := r.logger.With("hook", name, "index", index)
	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		logger.Debug("Hook output", "output", strings.TrimSpace(string(output)))
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// Not an exit status, e.g. command not found.
			if h.ErrorOnFail {
				return fmt.Errorf("hook %s[%d]: %w", name, index, err)
			}
			logger.Warn("Hook failed, continuing", "error", err)
			return nil
		}
		exitCode = exitErr.ExitCode()
	}

	if isAcceptableExit(exitCode, h.ExitCodes) {
		return nil
	}
	if h.ErrorOnFail {
		return fmt.Errorf("hook %s[%d]: command exited with code %d", name, index, exitCode)
	}
	logger.Warn("Hook exited with unexpected code, continuing", "exit_code", exitCode)
	return nil
}

// environ renders env as sorted KEY=value pairs.
func environ(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// isAcceptableExit checks whether exitCode is in the allowed list.
// An empty allowedCodes list defaults to allowing only exit code 0.
func isAcceptableExit(exitCode int, allowedCodes []int) bool {
	if len(allowedCodes) == 0 {
		return exitCode == 0
	}
	return slices.Contains(allowedCodes, exitCode)
}

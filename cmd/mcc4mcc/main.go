package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mcc4mcc/mcc4mcc/internal/selection"
)

// Exit codes for different failure modes
const (
	ExitSuccess       = 0 // A tool answered, or every smoke test passed
	ExitFailed        = 1 // Every candidate failed, or a smoke test failed
	ExitError         = 2 // Configuration or runtime error
	ExitDoNotCompete  = 3 // No candidate list applies to the model
	ExitCannotCompute = ExitFailed
)

// TestFailureError indicates that the smoke tests ran, but one or more
// tools did not pass.
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return e.Message
}

// exitCode maps an error returned by a command to the process status.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var testFailureErr *TestFailureError
	switch {
	case errors.As(err, &testFailureErr):
		return ExitFailed
	case errors.Is(err, selection.ErrCannotCompute):
		return ExitCannotCompute
	case errors.Is(err, selection.ErrDoNotCompete):
		return ExitDoNotCompete
	}

	// All other errors are configuration/runtime errors
	return ExitError
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

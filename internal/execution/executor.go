// Package execution runs verification tools against a model directory.
package execution

import (
	"context"
	"errors"
)

// ErrImageNotFound is returned when the container image of a tool is not
// available locally. Callers treat it as a failure of that tool only.
var ErrImageNotFound = errors.New("tool image not found")

// Executor runs one tool to completion.
type Executor interface {
	Run(ctx context.Context, req *Request) (*Result, error)
}

// Request describes one tool run.
type Request struct {
	Tool        string
	Examination string
	Instance    string
	// Dir is mounted read-write as the tool's working directory.
	Dir string
	// TimeConfinement is passed to the tool in seconds; the tool enforces it.
	TimeConfinement int
	// Output receives each line the tool prints, as it is printed.
	Output func(line string)
}

// Result reports how a tool run ended.
type Result struct {
	ExitCode int
}

// Success reports whether the tool exited with status zero.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

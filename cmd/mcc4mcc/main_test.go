package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mcc4mcc/mcc4mcc/internal/selection"
	"github.com/stretchr/testify/assert"
)

func TestTestFailureError(t *testing.T) {
	err := &TestFailureError{
		Message: "2 of 5 smoke tests failed",
	}

	assert.Equal(t, "2 of 5 smoke tests failed", err.Error())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "success",
			err:  nil,
			want: ExitSuccess,
		},
		{
			name: "TestFailureError",
			err:  &TestFailureError{Message: "test failure"},
			want: ExitFailed,
		},
		{
			name: "wrapped TestFailureError",
			err:  errors.Join(&TestFailureError{Message: "test failure"}, errors.New("additional context")),
			want: ExitFailed,
		},
		{
			name: "cannot compute",
			err:  selection.ErrCannotCompute,
			want: ExitCannotCompute,
		},
		{
			name: "do not compete",
			err:  fmt.Errorf("run: %w", selection.ErrDoNotCompete),
			want: ExitDoNotCompete,
		},
		{
			name: "regular error",
			err:  errors.New("config error"),
			want: ExitError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, outcomeSuccess, outcomeOf(nil))
	assert.Equal(t, outcomeCannotCompute, outcomeOf(selection.ErrCannotCompute))
	assert.Equal(t, outcomeDoNotCompete, outcomeOf(selection.ErrDoNotCompete))
	assert.Equal(t, outcomeError, outcomeOf(errors.New("boom")))
}

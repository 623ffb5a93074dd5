package controller

import (
	"errors"
	"fmt"
)

var (
	ErrNilPrompter = errors.New("controller prompter is nil")
	// ErrReadInput wraps a failure of the prompter itself: closed input, a
	// read error, or cancellation. The turn cannot continue.
	ErrReadInput = errors.New("read input")
	// ErrInvalidDecisionInput is returned when the decision keyword is not
	// one of approve, reject, or edit.
	ErrInvalidDecisionInput = errors.New("invalid decision input")
	// ErrUnsupportedEditTarget is returned when an edit targets an argument
	// the pending action does not expose.
	ErrUnsupportedEditTarget = errors.New("unsupported edit target")
)

// RunnerStreamError reports that the runner's step sequence ended abnormally.
type RunnerStreamError struct {
	ThreadID string
	Err      error
}

func (e *RunnerStreamError) Error() string {
	return fmt.Sprintf("runner stream failed on thread %s: %v", e.ThreadID, e.Err)
}

func (e *RunnerStreamError) Unwrap() error {
	return e.Err
}

package agent

import "errors"

var (
	// ErrMaxIterations is returned when a run exhausts its iteration budget
	// without a final response.
	ErrMaxIterations = errors.New("max iterations reached")
	// ErrNoPendingInterrupt is returned when a resume targets a thread that
	// is not suspended.
	ErrNoPendingInterrupt = errors.New("thread has no pending interrupt")
	// ErrThreadSuspended is returned when new user input arrives on a thread
	// that is waiting for a resume directive.
	ErrThreadSuspended = errors.New("thread is suspended awaiting a decision")
	ErrNilModel        = errors.New("agent model is nil")
	ErrStreamMode      = errors.New("unknown stream mode")
)

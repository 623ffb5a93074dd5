package controller

// TurnState is the position of a turn in the interrupt/resume cycle.
//
//	Running -> AwaitingDecision   interrupt snapshot
//	AwaitingDecision -> Resuming  decisions collected
//	Resuming -> Running           first resumed snapshot
//	Running -> Done               end of sequence
//	any -> Failed                 stream or input error
type TurnState int

const (
	StateRunning TurnState = iota
	StateAwaitingDecision
	StateResuming
	StateDone
	StateFailed
)

func (s TurnState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateAwaitingDecision:
		return "awaiting_decision"
	case StateResuming:
		return "resuming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s TurnState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

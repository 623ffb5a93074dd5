package controller

import "github.com/tailored-agentic-units/hitl/observability"

// Controller event types.
const (
	EventTurnStart    observability.EventType = "controller.turn.start"
	EventTurnState    observability.EventType = "controller.turn.state"
	EventTurnComplete observability.EventType = "controller.turn.complete"
	EventTurnFailed   observability.EventType = "controller.turn.failed"
	EventInterrupt    observability.EventType = "controller.interrupt"
	EventDecision     observability.EventType = "controller.decision"
	EventResume       observability.EventType = "controller.resume"
)

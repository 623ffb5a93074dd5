package agent

import "github.com/tailored-agentic-units/hitl/observability"

// Agent event types emitted while a run advances.
const (
	EventRunStart       observability.EventType = "agent.run.start"
	EventIterationStart observability.EventType = "agent.iteration.start"
	EventToolCall       observability.EventType = "agent.tool.call"
	EventToolComplete   observability.EventType = "agent.tool.complete"
	EventInterrupt      observability.EventType = "agent.interrupt"
	EventResume         observability.EventType = "agent.resume"
	EventResponse       observability.EventType = "agent.response"
	EventError          observability.EventType = "agent.error"
)

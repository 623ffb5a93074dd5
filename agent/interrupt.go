package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tailored-agentic-units/hitl/core/protocol"
	"github.com/tailored-agentic-units/hitl/observability"
	"github.com/tailored-agentic-units/hitl/session"
)

// suspend records the guarded calls as a pending interrupt and yields it.
func (x *run) suspend(ctx context.Context, guarded []protocol.ToolCall) {
	signal := protocol.InterruptSignal{
		ID:      x.newID(),
		Actions: make([]protocol.PendingAction, len(guarded)),
	}
	for i, tc := range guarded {
		signal.Actions[i] = protocol.PendingAction{
			Name:        tc.Name,
			Description: x.descriptionPrefix,
			Arguments:   decodeArguments(tc.Arguments),
		}
	}

	x.thread.Pending = &signal
	x.thread.PendingCalls = guarded
	if err := x.save(ctx); err != nil {
		x.fail(ctx, err)
		return
	}

	x.observer.OnEvent(ctx, observability.NewEvent(EventInterrupt, observability.LevelInfo, "agent.Stream",
		map[string]any{
			"thread_id":    x.thread.ID,
			"interrupt_id": signal.ID,
			"actions":      len(signal.Actions),
		}))

	out := signal.Clone()
	x.emit(session.Snapshot{Interrupt: &out})
}

// resume applies directive to the pending calls: approved and edited calls
// run, rejected calls are answered with the human's feedback. It reports
// whether the run should continue.
func (x *run) resume(ctx context.Context, directive protocol.ResumeDirective) bool {
	if !x.thread.Suspended() {
		x.fail(ctx, fmt.Errorf("%w: %s", ErrNoPendingInterrupt, x.thread.ID))
		return false
	}

	signal := *x.thread.Pending
	if err := directive.Validate(signal); err != nil {
		x.fail(ctx, fmt.Errorf("resume thread %s: %w", x.thread.ID, err))
		return false
	}
	if len(x.thread.PendingCalls) != len(signal.Actions) {
		x.fail(ctx, fmt.Errorf("resume thread %s: %d pending calls for %d actions",
			x.thread.ID, len(x.thread.PendingCalls), len(signal.Actions)))
		return false
	}

	x.observer.OnEvent(ctx, observability.NewEvent(EventResume, observability.LevelInfo, "agent.Stream",
		map[string]any{
			"thread_id":    x.thread.ID,
			"interrupt_id": signal.ID,
			"decisions":    len(directive.Decisions),
		}))

	calls := x.thread.PendingCalls
	results := make([]protocol.Message, 0, len(calls))

	for i, decision := range directive.Decisions {
		call := calls[i]

		switch decision.Type {
		case protocol.DecisionApprove:
			results = append(results, x.execute(ctx, call))
		case protocol.DecisionEdit:
			args, err := decision.EditedAction.ArgumentsJSON()
			if err != nil {
				x.fail(ctx, fmt.Errorf("encode edited arguments for %s: %w", call.Name, err))
				return false
			}
			call.Arguments = args
			x.reviseCall(call)
			results = append(results, x.execute(ctx, call))
		case protocol.DecisionReject:
			results = append(results, protocol.Message{
				Role:       protocol.RoleTool,
				Content:    protocol.RejectionNote(call.Name, decision.Feedback),
				ToolCallID: call.ID,
			})
		}
	}

	// The interrupt is cleared in the same checkpoint that answers every
	// pending call; a failed save leaves the stored thread suspended.
	x.thread.Pending = nil
	x.thread.PendingCalls = nil
	return x.commit(ctx, results, false)
}

// reviseCall rewrites the recorded assistant tool call so the history shows
// the arguments that actually ran.
func (x *run) reviseCall(call protocol.ToolCall) {
	for i := len(x.thread.Messages) - 1; i >= 0; i-- {
		msg := &x.thread.Messages[i]
		if msg.Role != protocol.RoleAssistant {
			continue
		}
		for j := range msg.ToolCalls {
			if msg.ToolCalls[j].ID == call.ID {
				msg.ToolCalls[j].Arguments = call.Arguments
				return
			}
		}
	}
}

// decodeArguments returns nil when the call's arguments are not a JSON object.
func decodeArguments(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil
	}
	return args
}

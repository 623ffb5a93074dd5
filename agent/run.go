package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/hitl/checkpoint"
	"github.com/tailored-agentic-units/hitl/core/protocol"
	"github.com/tailored-agentic-units/hitl/model"
	"github.com/tailored-agentic-units/hitl/observability"
	"github.com/tailored-agentic-units/hitl/session"
)

// run is the state of one Stream call. Once yield returns false, or an
// error has been yielded, nothing more is yielded.
type run struct {
	*Runner
	thread  checkpoint.Thread
	yield   func(session.Snapshot, error) bool
	stopped bool
}

func (x *run) emit(snap session.Snapshot) bool {
	if x.stopped {
		return false
	}
	if !x.yield(snap, nil) {
		x.stopped = true
	}
	return !x.stopped
}

func (x *run) fail(ctx context.Context, err error) {
	x.observer.OnEvent(ctx, observability.NewEvent(EventError, observability.LevelWarning, "agent.Stream",
		map[string]any{
			"thread_id": x.thread.ID,
			"error":     err.Error(),
		}))
	if !x.stopped {
		x.stopped = true
		x.yield(session.Snapshot{}, err)
	}
}

func (x *run) save(ctx context.Context) error {
	x.thread.UpdatedAt = x.now()
	if err := x.store.Save(ctx, x.thread); err != nil {
		return fmt.Errorf("save thread %s: %w", x.thread.ID, err)
	}
	return nil
}

// append adds msg to the thread, checkpoints it, and yields the step.
// streamed marks an assistant message whose content was already yielded in
// chunks.
func (x *run) append(ctx context.Context, msg protocol.Message, streamed bool) bool {
	return x.commit(ctx, []protocol.Message{msg}, streamed)
}

// commit adds msgs to the thread under a single checkpoint, then yields them.
func (x *run) commit(ctx context.Context, msgs []protocol.Message, streamed bool) bool {
	x.thread.Messages = append(x.thread.Messages, msgs...)
	if err := x.save(ctx); err != nil {
		x.fail(ctx, err)
		return false
	}

	if x.streamMode == StreamValues {
		return x.emit(session.Snapshot{Messages: protocol.CloneMessages(x.thread.Messages)})
	}
	if streamed {
		return true
	}
	for _, msg := range msgs {
		delta := msg.Clone()
		if !x.emit(session.Snapshot{Delta: &delta}) {
			return false
		}
	}
	return true
}

func (x *run) loop(ctx context.Context) {
	for iteration := 0; x.maxIterations == 0 || iteration < x.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			x.fail(ctx, err)
			return
		}

		x.observer.OnEvent(ctx, observability.NewEvent(EventIterationStart, observability.LevelVerbose, "agent.Stream",
			map[string]any{
				"thread_id": x.thread.ID,
				"iteration": iteration + 1,
			}))

		reply, streamed, ok := x.chat(ctx)
		if !ok {
			return
		}

		if len(reply.ToolCalls) == 0 {
			if !x.append(ctx, reply, streamed) {
				return
			}
			x.observer.OnEvent(ctx, observability.NewEvent(EventResponse, observability.LevelInfo, "agent.Stream",
				map[string]any{
					"thread_id":       x.thread.ID,
					"iteration":       iteration + 1,
					"response_length": len(reply.Content),
				}))
			return
		}

		if !x.append(ctx, reply, streamed) {
			return
		}

		var guarded []protocol.ToolCall
		for _, tc := range reply.ToolCalls {
			if x.interruptOn[tc.Name] {
				guarded = append(guarded, tc)
				continue
			}
			if !x.append(ctx, x.execute(ctx, tc), false) {
				return
			}
		}

		if len(guarded) > 0 {
			x.suspend(ctx, guarded)
			return
		}
	}

	x.fail(ctx, fmt.Errorf("%w: %d", ErrMaxIterations, x.maxIterations))
}

// chat asks the model for the next assistant message. In messages mode a
// model.Streamer has its content yielded chunk by chunk.
func (x *run) chat(ctx context.Context) (protocol.Message, bool, bool) {
	messages := x.buildMessages(x.thread.Messages)
	available := x.tools.List()

	if streamer, ok := x.model.(model.Streamer); ok && x.streamMode == StreamMessages {
		reply := protocol.Message{Role: protocol.RoleAssistant}
		var content strings.Builder
		for chunk, err := range streamer.ChatStream(ctx, messages, available) {
			if err != nil {
				x.fail(ctx, fmt.Errorf("model call failed: %w", err))
				return protocol.Message{}, false, false
			}
			if chunk.Content != "" {
				content.WriteString(chunk.Content)
				delta := protocol.NewMessage(protocol.RoleAssistant, chunk.Content)
				if !x.emit(session.Snapshot{Delta: &delta}) {
					return protocol.Message{}, false, false
				}
			}
			reply.ToolCalls = append(reply.ToolCalls, chunk.ToolCalls...)
		}
		reply.Content = content.String()
		return reply, true, true
	}

	reply, err := x.model.Chat(ctx, messages, available)
	if err != nil {
		x.fail(ctx, fmt.Errorf("model call failed: %w", err))
		return protocol.Message{}, false, false
	}
	reply.Role = protocol.RoleAssistant
	return reply, false, true
}

func (x *run) execute(ctx context.Context, tc protocol.ToolCall) protocol.Message {
	x.observer.OnEvent(ctx, observability.NewEvent(EventToolCall, observability.LevelVerbose, "agent.Stream",
		map[string]any{
			"thread_id": x.thread.ID,
			"name":      tc.Name,
		}))

	args := tc.Arguments
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}

	var content string
	isError := false
	result, err := x.tools.Execute(ctx, tc.Name, json.RawMessage(args))
	if err != nil {
		content = fmt.Sprintf("error: %s", err)
		isError = true
	} else {
		content = result.Content
		isError = result.IsError
	}

	x.observer.OnEvent(ctx, observability.NewEvent(EventToolComplete, observability.LevelVerbose, "agent.Stream",
		map[string]any{
			"thread_id": x.thread.ID,
			"name":      tc.Name,
			"error":     isError,
		}))

	return protocol.Message{
		Role:       protocol.RoleTool,
		Content:    content,
		ToolCallID: tc.ID,
	}
}

// Package checkpoint persists conversation threads between turns.
//
// A Thread holds the message history of one conversation and, while a run is
// suspended for human approval, the pending interrupt and the tool calls it
// guards. Stores are selected by name through the registry or built from
// Config:
//
//	store, err := checkpoint.New(&checkpoint.Config{Backend: "redis", Redis: checkpoint.RedisConfig{URL: url}})
package checkpoint

import (
	"context"
	"time"

	"github.com/tailored-agentic-units/hitl/core/protocol"
)

// Thread is the persisted state of one conversation.
type Thread struct {
	ID       string             `json:"id"`
	Messages []protocol.Message `json:"messages"`
	// Pending is set while the thread is suspended on an interrupt.
	Pending *protocol.InterruptSignal `json:"pending,omitempty"`
	// PendingCalls are the guarded tool calls, one per pending action, in order.
	PendingCalls []protocol.ToolCall `json:"pending_calls,omitempty"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Suspended reports whether the thread awaits a resume directive.
func (t Thread) Suspended() bool {
	return t.Pending != nil
}

// Clone returns a copy of t that shares no slices or maps with it.
func (t Thread) Clone() Thread {
	out := t
	out.Messages = protocol.CloneMessages(t.Messages)
	if t.Pending != nil {
		p := t.Pending.Clone()
		out.Pending = &p
	}
	if t.PendingCalls != nil {
		out.PendingCalls = append([]protocol.ToolCall(nil), t.PendingCalls...)
	}
	return out
}

// Store persists threads by ID. Implementations must be safe for concurrent use.
type Store interface {
	// Save creates or overwrites the thread.
	Save(ctx context.Context, thread Thread) error
	// Load returns ErrNotFound when no thread has the ID.
	Load(ctx context.Context, id string) (Thread, error)
	// Delete removes the thread. Missing IDs are ignored.
	Delete(ctx context.Context, id string) error
	// List returns the stored thread IDs in ascending order.
	List(ctx context.Context) ([]string, error)
}

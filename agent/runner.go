// Package agent implements the reference agent runner: a tool-calling loop
// over a chat model whose guarded tools suspend the run until a human
// decides.
//
// The runner persists every thread in a checkpoint store. A run that reaches
// a guarded tool call saves the thread with a pending interrupt and yields an
// interrupt snapshot; a later Stream call with a resume directive applies the
// decisions and continues the loop.
//
//	r, err := agent.New(&cfg, model.NewScripted(model.DefaultRules()), agent.WithTools(reg))
//	for snap, err := range r.Stream(ctx, "1", session.UserInput("Search for the weather in Austin")) {
//		...
//	}
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/hitl/checkpoint"
	"github.com/tailored-agentic-units/hitl/core/protocol"
	"github.com/tailored-agentic-units/hitl/model"
	"github.com/tailored-agentic-units/hitl/observability"
	"github.com/tailored-agentic-units/hitl/session"
	"github.com/tailored-agentic-units/hitl/tools"
)

// ToolExecutor abstracts tool listing and execution. *tools.Registry
// satisfies it.
type ToolExecutor interface {
	List() []protocol.Tool
	Execute(ctx context.Context, name string, args json.RawMessage) (tools.Result, error)
}

// Option configures a Runner after config-driven initialization.
type Option func(*Runner)

func WithTools(e ToolExecutor) Option {
	return func(r *Runner) { r.tools = e }
}

// WithStore replaces the default in-memory checkpoint store.
func WithStore(s checkpoint.Store) Option {
	return func(r *Runner) { r.store = s }
}

func WithObserver(o observability.Observer) Option {
	return func(r *Runner) { r.observer = observability.OrNoOp(o) }
}

// WithIDs replaces the interrupt ID generator.
func WithIDs(next func() string) Option {
	return func(r *Runner) { r.newID = next }
}

// Runner advances conversation threads. It implements session.Runner and
// session.HistoryReader. Runs on the same thread are serialized.
type Runner struct {
	model    model.Model
	tools    ToolExecutor
	store    checkpoint.Store
	observer observability.Observer
	newID    func() string
	now      func() time.Time

	systemPrompt      string
	maxIterations     int
	interruptOn       map[string]bool
	descriptionPrefix string
	streamMode        StreamMode

	locks sync.Map
}

var (
	_ session.Runner        = (*Runner)(nil)
	_ session.HistoryReader = (*Runner)(nil)
)

// New creates a Runner over m. Without options it has no tools and keeps
// threads in memory.
func New(cfg *Config, m model.Model, opts ...Option) (*Runner, error) {
	if m == nil {
		return nil, ErrNilModel
	}

	merged := DefaultConfig()
	if cfg != nil {
		merged.Merge(cfg)
	}
	switch merged.StreamMode {
	case StreamValues, StreamMessages:
	default:
		return nil, fmt.Errorf("%w: %s", ErrStreamMode, merged.StreamMode)
	}

	r := &Runner{
		model:    m,
		tools:    tools.NewRegistry(),
		store:    checkpoint.NewMemoryStore(),
		observer: observability.NoOpObserver{},
		newID: func() string {
			return uuid.Must(uuid.NewV7()).String()
		},
		now:               time.Now,
		systemPrompt:      merged.SystemPrompt,
		maxIterations:     merged.MaxIterations,
		interruptOn:       merged.InterruptOn,
		descriptionPrefix: merged.DescriptionPrefix,
		streamMode:        merged.StreamMode,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Stream runs the thread with input and yields its steps. A user input
// appends the message and starts the loop; a resume input answers the
// thread's pending interrupt first. The sequence ends after the final
// response, after an interrupt snapshot, or after the first error.
func (r *Runner) Stream(ctx context.Context, threadID string, input session.Input) iter.Seq2[session.Snapshot, error] {
	return func(yield func(session.Snapshot, error) bool) {
		unlock := r.lock(threadID)
		defer unlock()

		thread, err := r.load(ctx, threadID)
		if err != nil {
			yield(session.Snapshot{}, err)
			return
		}

		x := &run{Runner: r, thread: thread, yield: yield}

		r.observer.OnEvent(ctx, observability.NewEvent(EventRunStart, observability.LevelInfo, "agent.Stream",
			map[string]any{
				"thread_id": threadID,
				"resume":    input.IsResume(),
				"messages":  len(thread.Messages),
			}))

		if input.IsResume() {
			if !x.resume(ctx, *input.Resume) {
				return
			}
		} else {
			if thread.Suspended() {
				x.fail(ctx, fmt.Errorf("%w: %s (interrupt %s)", ErrThreadSuspended, threadID, thread.Pending.ID))
				return
			}
			for _, msg := range input.Messages {
				if !x.append(ctx, msg, false) {
					return
				}
			}
		}

		x.loop(ctx)
	}
}

// History returns the thread's persisted messages. Unknown threads have none.
func (r *Runner) History(ctx context.Context, threadID string) ([]protocol.Message, error) {
	thread, err := r.store.Load(ctx, threadID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return []protocol.Message{}, nil
		}
		return nil, err
	}
	return protocol.CloneMessages(thread.Messages), nil
}

// Pending returns the thread's unanswered interrupt, if any.
func (r *Runner) Pending(ctx context.Context, threadID string) (*protocol.InterruptSignal, error) {
	thread, err := r.load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.Pending == nil {
		return nil, nil
	}
	signal := thread.Pending.Clone()
	return &signal, nil
}

func (r *Runner) lock(threadID string) func() {
	v, _ := r.locks.LoadOrStore(threadID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (r *Runner) load(ctx context.Context, threadID string) (checkpoint.Thread, error) {
	thread, err := r.store.Load(ctx, threadID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return checkpoint.Thread{ID: threadID}, nil
		}
		return checkpoint.Thread{}, fmt.Errorf("load thread %s: %w", threadID, err)
	}
	return thread, nil
}

func (r *Runner) buildMessages(history []protocol.Message) []protocol.Message {
	if r.systemPrompt == "" {
		return protocol.CloneMessages(history)
	}

	messages := make([]protocol.Message, 0, len(history)+1)
	messages = append(messages, protocol.NewMessage(protocol.RoleSystem, r.systemPrompt))
	messages = append(messages, protocol.CloneMessages(history)...)
	return messages
}

// Package session binds a conversation thread to the runner that advances it.
package session

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/hitl/core/protocol"
)

var (
	ErrNilRunner          = errors.New("session runner is nil")
	ErrHistoryUnsupported = errors.New("runner does not expose thread history")
)

// Session is one conversation: a thread identifier and the runner handle
// used for every turn on it. Sessions are created per conversation and
// passed explicitly.
type Session struct {
	id     string
	runner Runner
}

// Option adjusts a Session at construction.
type Option func(*Session)

// WithThreadID uses a fixed thread identifier instead of a generated one.
func WithThreadID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// New creates a Session on runner. The thread ID defaults to a UUIDv7.
func New(runner Runner, opts ...Option) (*Session, error) {
	if runner == nil {
		return nil, ErrNilRunner
	}

	s := &Session{
		id:     uuid.Must(uuid.NewV7()).String(),
		runner: runner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FromConfig creates a Session using cfg.ThreadID when set.
func FromConfig(cfg *Config, runner Runner) (*Session, error) {
	return New(runner, WithThreadID(cfg.ThreadID))
}

func (s *Session) ID() string {
	return s.id
}

// Send starts a turn with one user message.
func (s *Session) Send(ctx context.Context, text string) iter.Seq2[Snapshot, error] {
	return s.runner.Stream(ctx, s.id, UserInput(text))
}

// Resume continues the suspended run with directive.
func (s *Session) Resume(ctx context.Context, directive protocol.ResumeDirective) iter.Seq2[Snapshot, error] {
	return s.runner.Stream(ctx, s.id, ResumeInput(directive))
}

// History returns the persisted messages of the thread.
func (s *Session) History(ctx context.Context) ([]protocol.Message, error) {
	reader, ok := s.runner.(HistoryReader)
	if !ok {
		return nil, ErrHistoryUnsupported
	}
	msgs, err := reader.History(ctx, s.id)
	if err != nil {
		return nil, fmt.Errorf("load history for thread %s: %w", s.id, err)
	}
	return msgs, nil
}

// Pending returns the thread's unanswered interrupt. It returns nil when
// there is none or the runner cannot tell.
func (s *Session) Pending(ctx context.Context) (*protocol.InterruptSignal, error) {
	reader, ok := s.runner.(PendingReader)
	if !ok {
		return nil, nil
	}
	signal, err := reader.Pending(ctx, s.id)
	if err != nil {
		return nil, fmt.Errorf("load pending interrupt for thread %s: %w", s.id, err)
	}
	return signal, nil
}

// Package controller drives conversational turns against an agent runner and
// mediates human approval of guarded tool calls.
//
// A turn streams the runner's output to the console. When the runner yields
// an interrupt, the controller stops forwarding output, shows each pending
// action, asks for one decision per action, and resumes the runner with a
// single directive.
//
//	ctrl, err := controller.New(&cfg, con, con)
//	result, err := ctrl.RunTurn(ctx, sess, "Search for the weather in Austin")
package controller

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/tailored-agentic-units/hitl/core/protocol"
	"github.com/tailored-agentic-units/hitl/observability"
	"github.com/tailored-agentic-units/hitl/session"
)

// Prompter reads one line of human input after showing a prompt. Calls block
// until the line is available or ctx is done.
type Prompter interface {
	Prompt(ctx context.Context, prompt string) (string, error)
}

// Result describes how a turn ended.
type Result struct {
	State      TurnState
	Interrupts int
	Directives []protocol.ResumeDirective
}

// Option configures a Controller after config-driven initialization.
type Option func(*Controller)

// WithObserver replaces the default no-op observer.
func WithObserver(o observability.Observer) Option {
	return func(c *Controller) { c.observer = observability.OrNoOp(o) }
}

// Controller runs turns one at a time. It holds no conversation state;
// threads live behind the session's runner.
type Controller struct {
	prompter      Prompter
	out           io.Writer
	observer      observability.Observer
	editField     string
	maxInterrupts int
}

// New creates a Controller that reads decisions from prompter and writes
// streamed output and prompts to out.
func New(cfg *Config, prompter Prompter, out io.Writer, opts ...Option) (*Controller, error) {
	if prompter == nil {
		return nil, ErrNilPrompter
	}
	if out == nil {
		out = io.Discard
	}

	merged := DefaultConfig()
	if cfg != nil {
		merged.Merge(cfg)
	}

	c := &Controller{
		prompter:      prompter,
		out:           out,
		observer:      observability.NoOpObserver{},
		editField:     merged.EditField,
		maxInterrupts: merged.MaxInterrupts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RunTurn sends userText on sess and drives the turn to completion.
//
// Assistant output is printed as it streams. Each interrupt is answered with
// exactly one ResumeDirective before any further snapshot is read. Errors
// abort the turn without sending a partial directive: ErrInvalidDecisionInput
// and ErrUnsupportedEditTarget come from human input, *RunnerStreamError
// from the runner.
func (c *Controller) RunTurn(ctx context.Context, sess *session.Session, userText string) (*Result, error) {
	c.observer.OnEvent(ctx, observability.NewEvent(EventTurnStart, observability.LevelInfo, "controller.RunTurn",
		map[string]any{
			"thread_id":    sess.ID(),
			"input_length": len(userText),
		}))

	return c.drive(ctx, sess, sess.Send(ctx, userText), nil)
}

// ResumeTurn answers signal, an interrupt left pending on sess by an earlier
// turn, and drives the resumed run to completion like RunTurn.
func (c *Controller) ResumeTurn(ctx context.Context, sess *session.Session, signal protocol.InterruptSignal) (*Result, error) {
	c.observer.OnEvent(ctx, observability.NewEvent(EventTurnStart, observability.LevelInfo, "controller.ResumeTurn",
		map[string]any{
			"thread_id":    sess.ID(),
			"interrupt_id": signal.ID,
		}))

	pending := signal.Clone()
	return c.drive(ctx, sess, nil, &pending)
}

// drive runs the interrupt/resume cycle. It starts from pending when set,
// otherwise from stream.
func (c *Controller) drive(ctx context.Context, sess *session.Session, stream iter.Seq2[session.Snapshot, error], pending *protocol.InterruptSignal) (*Result, error) {
	result := &Result{State: StateRunning}

	for {
		signal := pending
		pending = nil
		if signal == nil {
			var err error
			signal, err = c.drain(ctx, sess.ID(), stream, result)
			if err != nil {
				return c.fail(ctx, sess.ID(), result, err)
			}
		}

		if signal == nil {
			c.transition(ctx, sess.ID(), result, StateDone)
			c.observer.OnEvent(ctx, observability.NewEvent(EventTurnComplete, observability.LevelInfo, "controller.RunTurn",
				map[string]any{
					"thread_id":  sess.ID(),
					"interrupts": result.Interrupts,
				}))
			return result, nil
		}

		result.Interrupts++
		if c.maxInterrupts > 0 && result.Interrupts > c.maxInterrupts {
			fmt.Fprintf(c.out, "\n\n⏸ Approval limit of %d per turn reached; the pending action stays suspended.\n", c.maxInterrupts)
			c.transition(ctx, sess.ID(), result, StateDone)
			c.observer.OnEvent(ctx, observability.NewEvent(EventTurnComplete, observability.LevelWarning, "controller.RunTurn",
				map[string]any{
					"thread_id":    sess.ID(),
					"interrupts":   result.Interrupts,
					"suspended_id": signal.ID,
				}))
			return result, nil
		}

		c.transition(ctx, sess.ID(), result, StateAwaitingDecision)
		c.observer.OnEvent(ctx, observability.NewEvent(EventInterrupt, observability.LevelInfo, "controller.RunTurn",
			map[string]any{
				"thread_id":    sess.ID(),
				"interrupt_id": signal.ID,
				"actions":      len(signal.Actions),
			}))

		c.render(*signal)

		directive, err := c.Decide(ctx, *signal)
		if err != nil {
			return c.fail(ctx, sess.ID(), result, err)
		}
		if err := directive.Validate(*signal); err != nil {
			return c.fail(ctx, sess.ID(), result, err)
		}

		c.transition(ctx, sess.ID(), result, StateResuming)
		result.Directives = append(result.Directives, directive)
		c.observer.OnEvent(ctx, observability.NewEvent(EventResume, observability.LevelInfo, "controller.RunTurn",
			map[string]any{
				"thread_id":    sess.ID(),
				"interrupt_id": signal.ID,
				"decisions":    len(directive.Decisions),
			}))

		stream = sess.Resume(ctx, directive)
	}
}

// drain prints snapshots until the sequence ends or yields an interrupt.
// Returning on an interrupt stops the sequence; nothing after the interrupt
// is read from it.
func (c *Controller) drain(ctx context.Context, threadID string, stream iter.Seq2[session.Snapshot, error], result *Result) (*protocol.InterruptSignal, error) {
	for snap, err := range stream {
		if err != nil {
			return nil, &RunnerStreamError{ThreadID: threadID, Err: err}
		}

		if result.State == StateResuming {
			c.transition(ctx, threadID, result, StateRunning)
		}

		if snap.Interrupt != nil {
			signal := snap.Interrupt.Clone()
			return &signal, nil
		}

		c.print(snap)
	}
	return nil, nil
}

// print writes assistant content from a snapshot. Deltas print as they come;
// full-state snapshots print their last message when the assistant wrote it.
func (c *Controller) print(snap session.Snapshot) {
	if snap.Delta != nil {
		if snap.Delta.Role == protocol.RoleAssistant {
			fmt.Fprint(c.out, snap.Delta.Content)
		}
		return
	}

	last, ok := snap.Last()
	if !ok || last.Role != protocol.RoleAssistant || last.Content == "" {
		return
	}
	fmt.Fprint(c.out, last.Content)
}

func (c *Controller) transition(ctx context.Context, threadID string, result *Result, to TurnState) {
	from := result.State
	result.State = to

	c.observer.OnEvent(ctx, observability.NewEvent(EventTurnState, observability.LevelVerbose, "controller.RunTurn",
		map[string]any{
			"thread_id": threadID,
			"from":      from.String(),
			"to":        to.String(),
		}))
}

func (c *Controller) fail(ctx context.Context, threadID string, result *Result, err error) (*Result, error) {
	c.transition(ctx, threadID, result, StateFailed)
	c.observer.OnEvent(ctx, observability.NewEvent(EventTurnFailed, observability.LevelWarning, "controller.RunTurn",
		map[string]any{
			"thread_id": threadID,
			"error":     err.Error(),
		}))
	return result, err
}

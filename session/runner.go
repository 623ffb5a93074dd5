package session

import (
	"context"
	"iter"

	"github.com/tailored-agentic-units/hitl/core/protocol"
)

// Input starts or continues a run on a thread. Exactly one of Messages or
// Resume is set.
type Input struct {
	Messages []protocol.Message
	Resume   *protocol.ResumeDirective
}

// UserInput appends one user message to the thread.
func UserInput(text string) Input {
	return Input{Messages: []protocol.Message{protocol.NewMessage(protocol.RoleUser, text)}}
}

// ResumeInput answers the thread's pending interrupt.
func ResumeInput(directive protocol.ResumeDirective) Input {
	return Input{Resume: &directive}
}

// IsResume reports whether the input answers an interrupt.
func (in Input) IsResume() bool {
	return in.Resume != nil
}

// Snapshot is one step yielded by a Runner. A snapshot carries an
// Interrupt, a streamed Delta message, or the full Messages of the thread.
type Snapshot struct {
	Messages  []protocol.Message
	Delta     *protocol.Message
	Interrupt *protocol.InterruptSignal
}

// Last returns the final message of a full-state snapshot.
func (s Snapshot) Last() (protocol.Message, bool) {
	if len(s.Messages) == 0 {
		return protocol.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Runner executes an agent against a thread and yields its steps in order.
// Breaking out of the sequence stops the run at that step.
type Runner interface {
	Stream(ctx context.Context, threadID string, input Input) iter.Seq2[Snapshot, error]
}

// HistoryReader is implemented by runners that can report a thread's
// persisted messages.
type HistoryReader interface {
	History(ctx context.Context, threadID string) ([]protocol.Message, error)
}

// PendingReader is implemented by runners that can report an interrupt left
// unanswered on a thread.
type PendingReader interface {
	Pending(ctx context.Context, threadID string) (*protocol.InterruptSignal, error)
}

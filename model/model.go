// Package model defines the chat model contract the agent runner calls, and
// a scripted model that stands in for a real LLM.
package model

import (
	"context"
	"iter"

	"github.com/tailored-agentic-units/hitl/core/protocol"
)

// Model produces the next assistant message for a conversation. The reply
// either carries content or requests tools through ToolCalls.
type Model interface {
	Chat(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.Message, error)
}

// Chunk is one streamed piece of an assistant reply. Tool calls arrive
// complete, usually in the final chunk.
type Chunk struct {
	Content   string
	ToolCalls []protocol.ToolCall
}

// Streamer is implemented by models that can stream their reply.
type Streamer interface {
	ChatStream(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) iter.Seq2[Chunk, error]
}

// Func adapts a plain function to Model.
type Func func(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.Message, error)

func (f Func) Chat(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.Message, error) {
	return f(ctx, messages, tools)
}

// Collect drains a stream into a single assistant message.
func Collect(stream iter.Seq2[Chunk, error]) (protocol.Message, error) {
	msg := protocol.Message{Role: protocol.RoleAssistant}
	var content []byte
	for chunk, err := range stream {
		if err != nil {
			return protocol.Message{}, err
		}
		content = append(content, chunk.Content...)
		msg.ToolCalls = append(msg.ToolCalls, chunk.ToolCalls...)
	}
	msg.Content = string(content)
	return msg, nil
}

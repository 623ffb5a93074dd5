// Package protocol defines the value types exchanged between the console
// controller and an agent runner: conversation messages, tool calls, and the
// interrupt/resume vocabulary used for human approval of tool execution.
package protocol

import "encoding/json"

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model request to invoke a tool. Arguments holds the raw JSON
// object produced by the model.
//
// UnmarshalJSON accepts both the flat form ({id, name, arguments}) and the
// nested LLM API form ({id, function: {name, arguments}}).
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	var nested struct {
		ID       string `json:"id"`
		Function struct {
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"function"`
	}
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}

	if nested.Function.Name != "" {
		tc.ID = nested.ID
		tc.Name = nested.Function.Name
		tc.Arguments = nested.Function.Arguments
		return nil
	}

	type plain ToolCall
	return json.Unmarshal(data, (*plain)(tc))
}

// Message is a single entry of a conversation thread. Messages are treated as
// immutable once appended; stores return copies.
//
// Assistant messages that request tools carry ToolCalls; the matching tool
// result messages carry the ToolCallID they answer.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// NewMessage creates a Message with the given role and content.
//
//	msg := protocol.NewMessage(protocol.RoleUser, "Search for the weather in Austin")
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// Clone returns a copy of m that shares no slices with it.
func (m Message) Clone() Message {
	if m.ToolCalls != nil {
		m.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	}
	return m
}

// CloneMessages copies a message slice, including nested tool calls.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	copied := make([]Message, len(msgs))
	for i, msg := range msgs {
		copied[i] = msg.Clone()
	}
	return copied
}

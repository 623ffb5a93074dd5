package model

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/hitl/core/protocol"
)

const defaultFallback = "I can search the internet, check the weather, tell the time, or fetch the news. What would you like?"

// Rule maps a user message to a tool call. A rule matches when the lower-cased
// message contains any of its keywords.
type Rule struct {
	Tool     string
	Keywords []string
	// Arguments derives the call arguments from the user message.
	Arguments func(text string) map[string]any
}

func (r Rule) matches(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ScriptedOption configures a Scripted model.
type ScriptedOption func(*Scripted)

// WithFallback sets the reply used when no rule matches.
func WithFallback(reply string) ScriptedOption {
	return func(s *Scripted) { s.fallback = reply }
}

// WithCallIDs replaces the tool call ID generator.
func WithCallIDs(next func() string) ScriptedOption {
	return func(s *Scripted) { s.nextID = next }
}

// Scripted is a deterministic rule-based model. For a user message it
// requests the first matching tool that is on offer; after tool results it
// summarizes them; otherwise it answers with the fallback reply.
type Scripted struct {
	rules    []Rule
	fallback string
	nextID   func() string
}

func NewScripted(rules []Rule, opts ...ScriptedOption) *Scripted {
	s := &Scripted{
		rules:    rules,
		fallback: defaultFallback,
		nextID: func() string {
			return "call_" + uuid.Must(uuid.NewV7()).String()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scripted) Chat(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (protocol.Message, error) {
	if err := ctx.Err(); err != nil {
		return protocol.Message{}, err
	}
	if len(messages) == 0 {
		return protocol.Message{}, fmt.Errorf("scripted model: empty conversation")
	}

	last := messages[len(messages)-1]
	switch last.Role {
	case protocol.RoleTool:
		return protocol.NewMessage(protocol.RoleAssistant, summarize(trailingToolResults(messages))), nil
	case protocol.RoleUser:
		return s.reply(last.Content, tools)
	default:
		return protocol.NewMessage(protocol.RoleAssistant, s.fallback), nil
	}
}

// ChatStream yields the reply word by word. Tool calls arrive in the final chunk.
func (s *Scripted) ChatStream(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		msg, err := s.Chat(ctx, messages, tools)
		if err != nil {
			yield(Chunk{}, err)
			return
		}

		for _, word := range strings.SplitAfter(msg.Content, " ") {
			if word == "" {
				continue
			}
			if err := ctx.Err(); err != nil {
				yield(Chunk{}, err)
				return
			}
			if !yield(Chunk{Content: word}, nil) {
				return
			}
		}

		if len(msg.ToolCalls) > 0 {
			yield(Chunk{ToolCalls: msg.ToolCalls}, nil)
		}
	}
}

func (s *Scripted) reply(text string, tools []protocol.Tool) (protocol.Message, error) {
	offered := make(map[string]bool, len(tools))
	for _, t := range tools {
		offered[t.Name] = true
	}

	for _, rule := range s.rules {
		if !offered[rule.Tool] || !rule.matches(text) {
			continue
		}

		var args map[string]any
		if rule.Arguments != nil {
			args = rule.Arguments(text)
		}
		if args == nil {
			args = map[string]any{}
		}
		data, err := json.Marshal(args)
		if err != nil {
			return protocol.Message{}, fmt.Errorf("scripted model: encode arguments for %s: %w", rule.Tool, err)
		}

		return protocol.Message{
			Role: protocol.RoleAssistant,
			ToolCalls: []protocol.ToolCall{{
				ID:        s.nextID(),
				Name:      rule.Tool,
				Arguments: string(data),
			}},
		}, nil
	}

	return protocol.NewMessage(protocol.RoleAssistant, s.fallback), nil
}

func trailingToolResults(messages []protocol.Message) []string {
	var results []string
	for i := len(messages) - 1; i >= 0 && messages[i].Role == protocol.RoleTool; i-- {
		results = append([]string{messages[i].Content}, results...)
	}
	return results
}

func summarize(results []string) string {
	rejected := 0
	for _, r := range results {
		if strings.HasPrefix(r, protocol.RejectedPrefix) {
			rejected++
		}
	}

	switch {
	case len(results) == 1 && rejected == 1:
		return "Okay, I won't go ahead with that. " + results[0]
	case len(results) == 1:
		return "Here is what I found: " + results[0]
	}

	var b strings.Builder
	if rejected > 0 {
		b.WriteString("Here is what happened:")
	} else {
		b.WriteString("Here is what I found:")
	}
	for _, r := range results {
		b.WriteString("\n- ")
		b.WriteString(r)
	}
	return b.String()
}

package protocol

import (
	"encoding/json"
	"maps"
)

// PendingAction is one guarded operation awaiting a human decision: the tool
// name, a human-readable description, and the arguments the model supplied.
//
// A PendingAction is never mutated in place. Use Clone before editing.
type PendingAction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Arguments   map[string]any `json:"arguments,omitempty"`
}

// UnmarshalJSON accepts the argument mapping under either "arguments" or
// "args".
func (a *PendingAction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Arguments   map[string]any `json:"arguments"`
		Args        map[string]any `json:"args"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.Name = raw.Name
	a.Description = raw.Description
	a.Arguments = raw.Arguments
	if a.Arguments == nil {
		a.Arguments = raw.Args
	}
	return nil
}

// Clone returns a deep copy of a. Nested maps and slices inside Arguments are
// copied as well, so the result can be edited without aliasing the original.
func (a PendingAction) Clone() PendingAction {
	return PendingAction{
		Name:        a.Name,
		Description: a.Description,
		Arguments:   cloneMap(a.Arguments),
	}
}

// ArgumentsJSON encodes the arguments as a JSON object, the form a ToolCall
// carries.
func (a PendingAction) ArgumentsJSON() (string, error) {
	if a.Arguments == nil {
		return "{}", nil
	}
	data, err := json.Marshal(a.Arguments)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// InterruptSignal marks a single suspension point in a conversation. It
// carries every action the runner wants approved before it can continue.
type InterruptSignal struct {
	ID      string
	Actions []PendingAction
}

type interruptValue struct {
	ActionRequests []PendingAction `json:"action_requests"`
}

type interruptWire struct {
	ID    string         `json:"id"`
	Value interruptValue `json:"value"`
}

// MarshalJSON encodes the signal as {"id": ..., "value": {"action_requests": [...]}}.
func (s InterruptSignal) MarshalJSON() ([]byte, error) {
	return json.Marshal(interruptWire{
		ID:    s.ID,
		Value: interruptValue{ActionRequests: s.Actions},
	})
}

func (s *InterruptSignal) UnmarshalJSON(data []byte) error {
	var wire interruptWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.ID = wire.ID
	s.Actions = wire.Value.ActionRequests
	return nil
}

// Clone returns a deep copy of s.
func (s InterruptSignal) Clone() InterruptSignal {
	out := InterruptSignal{ID: s.ID}
	if s.Actions != nil {
		out.Actions = make([]PendingAction, len(s.Actions))
		for i, a := range s.Actions {
			out.Actions[i] = a.Clone()
		}
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return cloneMap(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), tv...)
	default:
		return v
	}
}

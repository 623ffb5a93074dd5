// Package tools holds the tools an agent runner may call and dispatches
// their execution.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/tailored-agentic-units/hitl/core/protocol"
)

// Handler implements a tool. It receives the JSON arguments from the model.
type Handler func(ctx context.Context, args json.RawMessage) (Result, error)

// Result is the tool output fed back to the model. IsError marks a failed
// invocation that is still reported as content.
type Result struct {
	Content string
	IsError bool
}

type entry struct {
	tool    protocol.Tool
	handler Handler
}

// Registry maps tool names to definitions and handlers. Safe for concurrent use.
type Registry struct {
	entries map[string]entry
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a tool. Returns ErrAlreadyExists for a duplicate name.
func (r *Registry) Register(tool protocol.Tool, handler Handler) error {
	if tool.Name == "" {
		return ErrEmptyName
	}
	if handler == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, tool.Name)
	}
	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	return nil
}

// Replace swaps the definition and handler of an existing tool.
func (r *Registry) Replace(tool protocol.Tool, handler Handler) error {
	if tool.Name == "" {
		return ErrEmptyName
	}
	if handler == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, tool.Name)
	}
	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	return nil
}

func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return nil, false
	}
	return e.handler, true
}

// List returns all tool definitions sorted by name.
func (r *Registry) List() []protocol.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]protocol.Tool, 0, len(r.entries))
	for _, e := range r.entries {
		list = append(list, e.tool)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Execute runs the named tool. Handler errors are wrapped with the tool name.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	result, err := e.handler(ctx, args)
	if err != nil {
		return Result{}, fmt.Errorf("tool %s execution failed: %w", name, err)
	}
	return result, nil
}

package tools

import "errors"

var (
	ErrNotFound      = errors.New("tool not found")
	ErrAlreadyExists = errors.New("tool already registered")
	ErrEmptyName     = errors.New("tool name is empty")
	// ErrNilHandler is returned when a tool is registered without a handler.
	ErrNilHandler = errors.New("tool handler is nil")
)

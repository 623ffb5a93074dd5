package checkpoint

import "errors"

var (
	ErrNotFound       = errors.New("thread not found")
	ErrEmptyID        = errors.New("thread id is empty")
	ErrLoadFailed     = errors.New("load failed")
	ErrSaveFailed     = errors.New("save failed")
	ErrUnknownBackend = errors.New("unknown checkpoint backend")
)

package exception

import "github.com/yanun0323/errors"

var (
	ErrUnknownTask       = errors.New("writer: task not found")
	ErrDuplicateTask     = errors.New("writer: task already registered")
	ErrTaskNotRunning    = errors.New("writer: task not running")
	ErrTaskTerminal      = errors.New("writer: task already in a terminal state")
	ErrMissingProviderID = errors.New("writer: record batch carries no provider id")
	ErrNoRecords         = errors.New("writer: nothing to write")
)

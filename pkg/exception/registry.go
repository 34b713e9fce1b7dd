package exception

import "github.com/yanun0323/errors"

var (
	ErrNilPlugin         = errors.New("registry: nil plugin")
	ErrInvalidDescriptor = errors.New("registry: invalid descriptor")
	ErrDuplicateProvider = errors.New("registry: provider already registered with a different descriptor")
	ErrUnknownProvider   = errors.New("registry: provider not registered")
)

package exception

import "github.com/yanun0323/errors"

var (
	ErrPoolExhausted    = errors.New("storage: connection pool exhausted")
	ErrUnitQuarantined  = errors.New("storage: unit quarantined")
	ErrUnitClosed       = errors.New("storage: unit closed")
	ErrUnknownAssetType = errors.New("storage: unknown asset type")
)

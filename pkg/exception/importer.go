package exception

import "github.com/yanun0323/errors"

var (
	ErrInvalidDateRange  = errors.New("importer: invalid date range")
	ErrNoSymbols         = errors.New("importer: empty symbol list")
	ErrQualityBelowFloor = errors.New("importer: quality score below configured floor")
)

package exception

import (
	"fmt"

	"github.com/yanun0323/errors"
)

var (
	ErrUnknownMapping         = errors.New("standardize: no mapping registered for provider")
	ErrEmptyBatch             = errors.New("standardize: empty batch")
	ErrStandardizationQuality = errors.New("standardize: dropped row fraction over threshold")
	ErrUnsupportedTimestamp   = errors.New("standardize: unsupported timestamp format")
)

// StandardizationQualityError fails a batch whose dropped-row fraction
// exceeded the configured limit.
type StandardizationQualityError struct {
	ProviderID string
	Dropped    int
	Total      int
}

func (e *StandardizationQualityError) Error() string {
	return fmt.Sprintf("standardize: provider %s dropped %d of %d rows", e.ProviderID, e.Dropped, e.Total)
}

func (e *StandardizationQualityError) Is(target error) bool {
	return target == ErrStandardizationQuality
}

package exception

import (
	"fmt"
	"strings"

	"github.com/yanun0323/errors"

	"main/internal/model/enum"
)

var (
	ErrNoProviderAvailable = errors.New("router: no provider available")
	ErrAllProvidersFailed  = errors.New("router: all providers failed")
)

// NoProviderAvailableError reports that neither the explicit name nor the
// capability index produced a candidate. It carries the full request so the
// failure is diagnosable without source inspection.
type NoProviderAvailableError struct {
	AssetType enum.AssetType
	DataType  enum.DataType
	Explicit  string
}

func (e *NoProviderAvailableError) Error() string {
	if e.Explicit != "" {
		return fmt.Sprintf("router: no provider available for (%s, %s), explicit provider %q matched nothing",
			e.AssetType, e.DataType, e.Explicit)
	}
	return fmt.Sprintf("router: no provider available for (%s, %s)", e.AssetType, e.DataType)
}

func (e *NoProviderAvailableError) Is(target error) bool {
	return target == ErrNoProviderAvailable
}

// ProviderAttempt records the last error from one candidate invocation.
type ProviderAttempt struct {
	ProviderID string
	Err        error
}

// AllProvidersFailedError aggregates the last error from each attempted
// candidate after the plan was exhausted.
type AllProvidersFailedError struct {
	Symbol   string
	Attempts []ProviderAttempt
}

func (e *AllProvidersFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "router: all %d providers failed for %s", len(e.Attempts), e.Symbol)
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.ProviderID, a.Err)
	}
	return b.String()
}

func (e *AllProvidersFailedError) Is(target error) bool {
	return target == ErrAllProvidersFailed
}

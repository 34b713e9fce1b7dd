package plugin

import (
	"context"

	"main/internal/model"
	"main/internal/model/enum"
)

// CapabilityPair is one (asset type, data type) combination a provider
// claims to serve.
type CapabilityPair struct {
	Asset enum.AssetType
	Data  enum.DataType
}

// Descriptor identifies a provider plugin. Immutable after registration.
type Descriptor struct {
	ProviderID  string
	DisplayName string
	Aliases     []string
}

// Plugin is the closed contract every data source implements. Capabilities
// are declared explicitly; the registry never infers them.
type Plugin interface {
	Descriptor() Descriptor
	Capabilities() []CapabilityPair
	Fetch(ctx context.Context, symbol string, dataType enum.DataType, dateRange model.DateRange) ([]model.RawRow, error)
	HealthCheck(ctx context.Context) bool
}

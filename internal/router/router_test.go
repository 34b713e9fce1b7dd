package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/plugin"
	"main/pkg/exception"
)

type stubPlugin struct {
	desc  plugin.Descriptor
	pairs []plugin.CapabilityPair
}

func (p *stubPlugin) Descriptor() plugin.Descriptor         { return p.desc }
func (p *stubPlugin) Capabilities() []plugin.CapabilityPair { return p.pairs }
func (p *stubPlugin) HealthCheck(context.Context) bool      { return true }
func (p *stubPlugin) Fetch(context.Context, string, enum.DataType, model.DateRange) ([]model.RawRow, error) {
	return nil, nil
}

func register(t *testing.T, reg *plugin.Registry, id, display string, pairs ...plugin.CapabilityPair) {
	t.Helper()
	require.NoError(t, reg.Register(&stubPlugin{
		desc:  plugin.Descriptor{ProviderID: id, DisplayName: display},
		pairs: pairs,
	}))
}

func TestResolveExplicitProviderOutranksCapabilities(t *testing.T) {
	reg := plugin.NewRegistry([]string{"tushare", "akshare"})
	// AKShare's declared capabilities deliberately omit historical
	// klines; the explicit name must still win the first slot.
	register(t, reg, "akshare", "AKShare",
		plugin.CapabilityPair{Asset: enum.AssetTypeStock, Data: enum.DataTypeRealtimeQuote})
	register(t, reg, "tushare", "Tushare Pro",
		plugin.CapabilityPair{Asset: enum.AssetTypeStock, Data: enum.DataTypeHistoricalKline})
	register(t, reg, "sina", "Sina Finance",
		plugin.CapabilityPair{Asset: enum.AssetTypeStock, Data: enum.DataTypeHistoricalKline})

	plan, err := New(reg).Resolve(Request{
		AssetType:        enum.AssetTypeStock,
		DataType:         enum.DataTypeHistoricalKline,
		ExplicitProvider: "AKShare",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"akshare", "tushare", "sina"}, plan)
}

func TestResolveDeduplicatesFirstSeen(t *testing.T) {
	reg := plugin.NewRegistry(nil)
	register(t, reg, "tushare", "Tushare Pro",
		plugin.CapabilityPair{Asset: enum.AssetTypeStock, Data: enum.DataTypeHistoricalKline})

	plan, err := New(reg).Resolve(Request{
		AssetType:        enum.AssetTypeStock,
		DataType:         enum.DataTypeHistoricalKline,
		ExplicitProvider: "tushare",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tushare"}, plan)
}

func TestResolveCapabilityOnly(t *testing.T) {
	reg := plugin.NewRegistry([]string{"akshare", "sina"})
	register(t, reg, "sina", "Sina Finance",
		plugin.CapabilityPair{Asset: enum.AssetTypeStock, Data: enum.DataTypeRealtimeQuote})
	register(t, reg, "akshare", "AKShare",
		plugin.CapabilityPair{Asset: enum.AssetTypeStock, Data: enum.DataTypeRealtimeQuote})

	plan, err := New(reg).Resolve(Request{
		AssetType: enum.AssetTypeStock,
		DataType:  enum.DataTypeRealtimeQuote,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"akshare", "sina"}, plan)
}

func TestResolveNoProviderAvailable(t *testing.T) {
	reg := plugin.NewRegistry(nil)
	register(t, reg, "akshare", "AKShare",
		plugin.CapabilityPair{Asset: enum.AssetTypeStock, Data: enum.DataTypeHistoricalKline})

	_, err := New(reg).Resolve(Request{
		AssetType:        enum.AssetTypeCrypto,
		DataType:         enum.DataTypeFundamental,
		ExplicitProvider: "bloomberg",
	})
	require.ErrorIs(t, err, exception.ErrNoProviderAvailable)

	var npa *exception.NoProviderAvailableError
	require.ErrorAs(t, err, &npa)
	assert.Equal(t, enum.AssetTypeCrypto, npa.AssetType)
	assert.Equal(t, enum.DataTypeFundamental, npa.DataType)
	assert.Equal(t, "bloomberg", npa.Explicit)
	assert.Contains(t, err.Error(), "bloomberg")
}

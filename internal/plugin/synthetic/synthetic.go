package synthetic

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/plugin"
	"main/internal/standardize"
)

const ProviderID = "synthetic"

// Plugin generates deterministic daily bars, standing in for a network
// provider in smoke runs and tests. The walk is seeded from the symbol
// so repeated fetches return identical rows.
type Plugin struct{}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ProviderID:  ProviderID,
		DisplayName: "Synthetic Bars",
		Aliases:     []string{"demo", "local"},
	}
}

func (p *Plugin) Capabilities() []plugin.CapabilityPair {
	assets := []enum.AssetType{
		enum.AssetTypeStock,
		enum.AssetTypeStockUS,
		enum.AssetTypeStockHK,
		enum.AssetTypeETF,
		enum.AssetTypeIndex,
		enum.AssetTypeCrypto,
	}
	pairs := make([]plugin.CapabilityPair, 0, len(assets)*2)
	for _, a := range assets {
		pairs = append(pairs,
			plugin.CapabilityPair{Asset: a, Data: enum.DataTypeHistoricalKline},
			plugin.CapabilityPair{Asset: a, Data: enum.DataTypeMinuteKline},
		)
	}
	return pairs
}

func (p *Plugin) HealthCheck(context.Context) bool {
	return true
}

// Fetch emits one bar per day across the range (last 30 days when the
// range is zero) in the provider's raw shape: epoch-second timestamps
// and plain field names.
func (p *Plugin) Fetch(_ context.Context, symbol string, _ enum.DataType, dateRange model.DateRange) ([]model.RawRow, error) {
	end := dateRange.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}
	start := dateRange.Start
	if start.IsZero() {
		start = end.AddDate(0, 0, -29)
	}

	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	price := 20 + rng.Float64()*180

	var rows []model.RawRow
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		open := price
		drift := (rng.Float64() - 0.5) * open * 0.04
		closePx := open + drift
		high := max(open, closePx) * (1 + rng.Float64()*0.01)
		low := min(open, closePx) * (1 - rng.Float64()*0.01)
		volume := float64(rng.Intn(9_000_000) + 1_000_000)
		price = closePx

		rows = append(rows, model.RawRow{
			"symbol":    symbol,
			"timestamp": day.Unix(),
			"open":      round2(open),
			"high":      round2(high),
			"low":       round2(low),
			"close":     round2(closePx),
			"volume":    volume,
			"source":    "generator",
		})
	}
	return rows, nil
}

// Mapping returns the standardization table for this provider's shape.
func Mapping() standardize.Mapping {
	m := standardize.YFinanceMapping()
	m.ProviderID = ProviderID
	m.Symbol = standardize.SymbolSpec{Uppercase: true, Rules: standardize.ChinaASuffixRules}
	return m
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

package standardize

import (
	"time"

	"github.com/shopspring/decimal"
)

// Canonical field names a mapping may target.
const (
	FieldSymbol    = "symbol"
	FieldTimestamp = "timestamp"
	FieldOpen      = "open"
	FieldHigh      = "high"
	FieldLow       = "low"
	FieldClose     = "close"
	FieldVolume    = "volume"
)

// ConvertFunc adjusts a numeric field's unit after mapping.
type ConvertFunc func(decimal.Decimal) decimal.Decimal

// Mapping describes how one provider's raw rows become canonical records.
// It is pure data: renames, unit conversions, defaults, a timestamp spec
// and a symbol spec. Mappings are registered once at startup.
type Mapping struct {
	ProviderID string
	Fields     map[string]string
	Convert    map[string]ConvertFunc
	Defaults   map[string]any
	Timestamp  TimestampSpec
	Symbol     SymbolSpec
	KeepExtra  bool
}

var shanghai = mustLocation("Asia/Shanghai")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Scale returns a ConvertFunc multiplying by a constant factor, for
// providers reporting volume in lots or prices in minor units.
func Scale(factor int64) ConvertFunc {
	f := decimal.NewFromInt(factor)
	return func(d decimal.Decimal) decimal.Decimal {
		return d.Mul(f)
	}
}

// AKShareMapping covers AKShare daily kline output, which labels columns
// in Chinese and reports exchange-local dates without a zone.
func AKShareMapping() Mapping {
	return Mapping{
		ProviderID: "akshare",
		Fields: map[string]string{
			"代码":  FieldSymbol,
			"日期":  FieldTimestamp,
			"开盘":  FieldOpen,
			"最高":  FieldHigh,
			"最低":  FieldLow,
			"收盘":  FieldClose,
			"成交量": FieldVolume,
		},
		Timestamp: TimestampSpec{
			Format:   TimestampLocalLayout,
			Layout:   "2006-01-02",
			Location: shanghai,
		},
		Symbol:    SymbolSpec{Rules: ChinaASuffixRules},
		KeepExtra: true,
	}
}

// TushareMapping covers Tushare daily bars: compact YYYYMMDD trade dates
// and volume quoted in lots of 100 shares.
func TushareMapping() Mapping {
	return Mapping{
		ProviderID: "tushare",
		Fields: map[string]string{
			"ts_code":    FieldSymbol,
			"trade_date": FieldTimestamp,
			"open":       FieldOpen,
			"high":       FieldHigh,
			"low":        FieldLow,
			"close":      FieldClose,
			"vol":        FieldVolume,
		},
		Convert: map[string]ConvertFunc{
			FieldVolume: Scale(100),
		},
		Timestamp: TimestampSpec{
			Format:   TimestampLocalLayout,
			Layout:   "20060102",
			Location: shanghai,
		},
		Symbol:    SymbolSpec{Uppercase: true, Rules: ChinaASuffixRules},
		KeepExtra: true,
	}
}

// YFinanceMapping covers Yahoo-style bars keyed by epoch seconds.
func YFinanceMapping() Mapping {
	return Mapping{
		ProviderID: "yfinance",
		Fields: map[string]string{
			"symbol":    FieldSymbol,
			"timestamp": FieldTimestamp,
			"open":      FieldOpen,
			"high":      FieldHigh,
			"low":       FieldLow,
			"close":     FieldClose,
			"volume":    FieldVolume,
		},
		Timestamp: TimestampSpec{Format: TimestampEpochSeconds},
		Symbol:    SymbolSpec{Uppercase: true},
		KeepExtra: true,
	}
}

// SinaMapping covers Sina realtime quotes with exchange-local datetimes.
func SinaMapping() Mapping {
	return Mapping{
		ProviderID: "sina",
		Fields: map[string]string{
			"symbol": FieldSymbol,
			"day":    FieldTimestamp,
			"open":   FieldOpen,
			"high":   FieldHigh,
			"low":    FieldLow,
			"close":  FieldClose,
			"volume": FieldVolume,
		},
		Timestamp: TimestampSpec{
			Format:   TimestampLocalLayout,
			Layout:   "2006-01-02 15:04:05",
			Location: shanghai,
		},
		Symbol:    SymbolSpec{Uppercase: true, Rules: ChinaASuffixRules},
		KeepExtra: true,
	}
}

// BuiltinMappings returns the mapping table for every bundled provider.
func BuiltinMappings() []Mapping {
	return []Mapping{
		AKShareMapping(),
		TushareMapping(),
		YFinanceMapping(),
		SinaMapping(),
	}
}

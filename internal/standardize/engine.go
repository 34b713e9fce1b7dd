package standardize

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// Engine converts provider-shaped rows into canonical records using the
// per-provider mapping tables. It is stateless apart from the registered
// mappings, which are installed once at startup.
type Engine struct {
	mu              sync.Mutex
	mappings        map[string]Mapping
	maxDropFraction float64
}

// NewEngine creates an engine. maxDropFraction is the dropped-row share
// above which a whole batch fails instead of passing through thinned.
func NewEngine(maxDropFraction float64) *Engine {
	if maxDropFraction <= 0 || maxDropFraction > 1 {
		maxDropFraction = 0.5
	}
	return &Engine{
		mappings:        make(map[string]Mapping),
		maxDropFraction: maxDropFraction,
	}
}

// RegisterMapping installs a provider mapping, replacing any previous one.
func (e *Engine) RegisterMapping(m Mapping) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mappings[m.ProviderID] = m
}

// Mapping returns the mapping registered for a provider.
func (e *Engine) Mapping(providerID string) (Mapping, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.mappings[providerID]
	return m, ok
}

// Standardize maps one provider's raw rows for one symbol into canonical
// records, sorted by timestamp. Rows that cannot be mapped are dropped and
// counted, not fatal; a batch losing more than the configured fraction
// fails whole. Every surviving record carries the provider id.
func (e *Engine) Standardize(providerID, symbol string, assetType enum.AssetType, dataType enum.DataType, rows []model.RawRow) ([]model.CanonicalRecord, int, error) {
	mapping, ok := e.Mapping(providerID)
	if !ok {
		return nil, 0, exception.ErrUnknownMapping
	}
	if len(rows) == 0 {
		return nil, 0, exception.ErrEmptyBatch
	}

	records := make([]model.CanonicalRecord, 0, len(rows))
	dropped := 0
	for _, raw := range rows {
		rec, err := mapRow(mapping, raw, symbol, assetType, dataType)
		if err != nil {
			dropped++
			logs.Debugf("standardize: drop row from %s for %s: %v", providerID, symbol, err)
			continue
		}
		records = append(records, rec)
	}

	if float64(dropped)/float64(len(rows)) > e.maxDropFraction {
		return nil, dropped, &exception.StandardizationQualityError{
			ProviderID: providerID,
			Dropped:    dropped,
			Total:      len(rows),
		}
	}
	if dropped > 0 {
		logs.Warnf("standardize: %s dropped %d of %d rows for %s", providerID, dropped, len(rows), symbol)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, dropped, nil
}

func mapRow(mapping Mapping, raw model.RawRow, fallbackSymbol string, assetType enum.AssetType, dataType enum.DataType) (model.CanonicalRecord, error) {
	fields := make(map[string]any, len(raw))
	var extra map[string]any
	for key, value := range raw {
		canonical, ok := mapping.Fields[key]
		if !ok {
			if mapping.KeepExtra {
				if extra == nil {
					extra = make(map[string]any)
				}
				extra[key] = value
			}
			continue
		}
		fields[canonical] = value
	}
	for canonical, def := range mapping.Defaults {
		if _, ok := fields[canonical]; !ok {
			fields[canonical] = def
		}
	}

	tsRaw, ok := fields[FieldTimestamp]
	if !ok {
		return model.CanonicalRecord{}, exception.ErrUnsupportedTimestamp
	}
	ts, err := mapping.Timestamp.Parse(tsRaw)
	if err != nil {
		return model.CanonicalRecord{}, err
	}

	rec := model.CanonicalRecord{
		AssetType:  assetType,
		DataType:   dataType,
		Timestamp:  ts,
		ProviderID: mapping.ProviderID,
		Extra:      extra,
	}

	symbol := fallbackSymbol
	if v, ok := fields[FieldSymbol]; ok {
		if s, ok := v.(string); ok && s != "" {
			symbol = s
		}
	}
	rec.Symbol = mapping.Symbol.Normalize(symbol)

	for _, name := range [...]string{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume} {
		v, ok := fields[name]
		if !ok || v == nil {
			continue
		}
		d, ok := toDecimal(v)
		if !ok {
			return model.CanonicalRecord{}, &unconvertibleFieldError{Field: name, Value: v}
		}
		if convert, ok := mapping.Convert[name]; ok {
			d = convert(d)
		}
		nd := decimal.NullDecimal{Decimal: d, Valid: true}
		switch name {
		case FieldOpen:
			rec.Open = nd
		case FieldHigh:
			rec.High = nd
		case FieldLow:
			rec.Low = nd
		case FieldClose:
			rec.Close = nd
		case FieldVolume:
			rec.Volume = nd
		}
	}

	if requiresClose(dataType) && !rec.Close.Valid {
		return model.CanonicalRecord{}, &unconvertibleFieldError{Field: FieldClose, Value: nil}
	}
	return rec, nil
}

func requiresClose(dataType enum.DataType) bool {
	switch dataType {
	case enum.DataTypeHistoricalKline, enum.DataTypeMinuteKline, enum.DataTypeRealtimeQuote:
		return true
	default:
		return false
	}
}

type unconvertibleFieldError struct {
	Field string
	Value any
}

func (e *unconvertibleFieldError) Error() string {
	if e.Value == nil {
		return "required field missing: " + e.Field
	}
	return "unconvertible field " + e.Field
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case float64:
		return decimal.NewFromFloat(x), true
	case float32:
		return decimal.NewFromFloat32(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" || s == "-" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	default:
		if s, ok := v.(interface{ String() string }); ok {
			if _, err := strconv.ParseFloat(s.String(), 64); err == nil {
				d, derr := decimal.NewFromString(s.String())
				return d, derr == nil
			}
		}
		return decimal.Decimal{}, false
	}
}

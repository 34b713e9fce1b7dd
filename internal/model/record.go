package model

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/yanun0323/errors"

	"main/internal/model/enum"
)

// RawRow is one provider-shaped row before standardization.
type RawRow = map[string]any

// DateRange bounds a historical fetch. End is inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r DateRange) Validate() error {
	if r.IsZero() {
		return nil
	}
	if r.End.Before(r.Start) {
		return errors.New("date range end before start")
	}
	return nil
}

// CanonicalRecord is one row of standardized data. Every provider's output
// is converted into this shape before scoring and storage.
//
// ProviderID must never be empty or "unknown" once the record leaves the
// standardization engine; losing it is a correctness bug.
type CanonicalRecord struct {
	Symbol     string
	AssetType  enum.AssetType
	DataType   enum.DataType
	Timestamp  time.Time
	Open       decimal.NullDecimal
	High       decimal.NullDecimal
	Low        decimal.NullDecimal
	Close      decimal.NullDecimal
	Volume     decimal.NullDecimal
	ProviderID string
	Extra      map[string]any
}

// KlineRow is the storage shape of a CanonicalRecord. One table per data
// type inside each family unit; (symbol, ts) is the upsert key.
type KlineRow struct {
	ID         uint64              `gorm:"primaryKey;autoIncrement"`
	Symbol     string              `gorm:"size:32;not null;uniqueIndex:idx_symbol_ts,priority:1"`
	Ts         int64               `gorm:"not null;uniqueIndex:idx_symbol_ts,priority:2"`
	Open       decimal.NullDecimal `gorm:"type:text"`
	High       decimal.NullDecimal `gorm:"type:text"`
	Low        decimal.NullDecimal `gorm:"type:text"`
	Close      decimal.NullDecimal `gorm:"type:text"`
	Volume     decimal.NullDecimal `gorm:"type:text"`
	ProviderID string              `gorm:"size:64;not null"`
	Extra      []byte              `gorm:"type:blob"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Row converts a canonical record into its storage shape. Extra fields are
// packed into a msgpack blob so provider-specific columns survive intact.
func (r CanonicalRecord) Row() (KlineRow, error) {
	row := KlineRow{
		Symbol:     r.Symbol,
		Ts:         r.Timestamp.UTC().UnixMilli(),
		Open:       r.Open,
		High:       r.High,
		Low:        r.Low,
		Close:      r.Close,
		Volume:     r.Volume,
		ProviderID: r.ProviderID,
	}
	if len(r.Extra) != 0 {
		blob, err := msgpack.Marshal(r.Extra)
		if err != nil {
			return KlineRow{}, errors.Wrap(err, "pack extra fields")
		}
		row.Extra = blob
	}
	return row, nil
}

// Record converts a storage row back into a canonical record.
func (row KlineRow) Record(assetType enum.AssetType, dataType enum.DataType) (CanonicalRecord, error) {
	r := CanonicalRecord{
		Symbol:     row.Symbol,
		AssetType:  assetType,
		DataType:   dataType,
		Timestamp:  time.UnixMilli(row.Ts).UTC(),
		Open:       row.Open,
		High:       row.High,
		Low:        row.Low,
		Close:      row.Close,
		Volume:     row.Volume,
		ProviderID: row.ProviderID,
	}
	if len(row.Extra) != 0 {
		if err := msgpack.Unmarshal(row.Extra, &r.Extra); err != nil {
			return CanonicalRecord{}, errors.Wrap(err, "unpack extra fields")
		}
	}
	return r, nil
}

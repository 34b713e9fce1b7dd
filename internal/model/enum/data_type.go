package enum

// DataType describes the meaning of a record batch.
type DataType uint8

const (
	_data_type_beg DataType = iota
	DataTypeHistoricalKline
	DataTypeMinuteKline
	DataTypeRealtimeQuote
	DataTypeFundamental
	_data_type_end
)

func (d DataType) IsAvailable() bool {
	return d > _data_type_beg && d < _data_type_end
}

func (d DataType) String() string {
	switch d {
	case DataTypeHistoricalKline:
		return "historical_kline"
	case DataTypeMinuteKline:
		return "minute_kline"
	case DataTypeRealtimeQuote:
		return "realtime_quote"
	case DataTypeFundamental:
		return "fundamental"
	default:
		return "unknown"
	}
}

// TableName is the storage table a batch of this data type is written to.
func (d DataType) TableName() string {
	return d.String()
}

// ParseDataType resolves a config-facing name into a DataType.
func ParseDataType(s string) (DataType, bool) {
	for d := _data_type_beg + 1; d < _data_type_end; d++ {
		if d.String() == s {
			return d, true
		}
	}
	return _data_type_beg, false
}

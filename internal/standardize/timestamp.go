package standardize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"main/pkg/exception"
)

// TimestampFormat enumerates the raw timestamp shapes providers emit.
type TimestampFormat uint8

const (
	_timestamp_format_beg TimestampFormat = iota
	TimestampEpochMillis
	TimestampEpochSeconds
	TimestampISO8601
	TimestampLocalLayout
	_timestamp_format_end
)

func (f TimestampFormat) IsAvailable() bool {
	return f > _timestamp_format_beg && f < _timestamp_format_end
}

// TimestampSpec resolves a provider's raw timestamps to UTC instants.
//
// A provider that reports exchange-local time without a zone must have
// that zone baked into its mapping; it is never inferred at runtime.
type TimestampSpec struct {
	Format   TimestampFormat
	Layout   string
	Location *time.Location
}

// Parse converts one raw timestamp value into a UTC instant.
func (s TimestampSpec) Parse(v any) (time.Time, error) {
	switch s.Format {
	case TimestampEpochMillis:
		ms, ok := toInt64(v)
		if !ok {
			return time.Time{}, fmt.Errorf("epoch millis: unreadable value %v", v)
		}
		return time.UnixMilli(ms).UTC(), nil

	case TimestampEpochSeconds:
		sec, ok := toInt64(v)
		if !ok {
			return time.Time{}, fmt.Errorf("epoch seconds: unreadable value %v", v)
		}
		return time.Unix(sec, 0).UTC(), nil

	case TimestampISO8601:
		str, ok := v.(string)
		if !ok {
			return time.Time{}, fmt.Errorf("iso8601: unreadable value %v", v)
		}
		str = strings.TrimSpace(str)
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, str); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("iso8601: unparseable value %q", str)

	case TimestampLocalLayout:
		str, ok := v.(string)
		if !ok {
			return time.Time{}, fmt.Errorf("local layout: unreadable value %v", v)
		}
		loc := s.Location
		if loc == nil {
			return time.Time{}, exception.ErrUnsupportedTimestamp
		}
		t, err := time.ParseInLocation(s.Layout, strings.TrimSpace(str), loc)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil

	default:
		return time.Time{}, exception.ErrUnsupportedTimestamp
	}
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case float64:
		return int64(x), true
	case float32:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

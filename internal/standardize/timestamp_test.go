package standardize

import (
	"testing"
	"time"
)

func TestTimestampSpecParse(t *testing.T) {
	want := time.Date(2024, 1, 5, 7, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		spec TimestampSpec
		in   any
	}{
		{"epoch millis", TimestampSpec{Format: TimestampEpochMillis}, want.UnixMilli()},
		{"epoch millis string", TimestampSpec{Format: TimestampEpochMillis}, "1704438000000"},
		{"epoch seconds", TimestampSpec{Format: TimestampEpochSeconds}, want.Unix()},
		{"iso8601", TimestampSpec{Format: TimestampISO8601}, "2024-01-05T07:00:00Z"},
		{"exchange local", TimestampSpec{
			Format:   TimestampLocalLayout,
			Layout:   "2006-01-02 15:04:05",
			Location: shanghai,
		}, "2024-01-05 15:00:00"},
	}
	for _, c := range cases {
		got, err := c.spec.Parse(c.in)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%s: got %v, want %v", c.name, got, want)
		}
		if got.Location() != time.UTC {
			t.Fatalf("%s: result not UTC", c.name)
		}
	}
}

func TestTimestampSpecRejectsGarbage(t *testing.T) {
	spec := TimestampSpec{Format: TimestampISO8601}
	if _, err := spec.Parse("yesterday"); err == nil {
		t.Fatal("want error for unparseable timestamp")
	}
	if _, err := (TimestampSpec{}).Parse("2024-01-05"); err == nil {
		t.Fatal("want error for unset format")
	}
}

package quality

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"main/internal/model"
)

func dec(f float64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(f), Valid: true}
}

func record(symbol string, ts time.Time, open, high, low, closePx, volume float64) model.CanonicalRecord {
	return model.CanonicalRecord{
		Symbol:     symbol,
		Timestamp:  ts,
		Open:       dec(open),
		High:       dec(high),
		Low:        dec(low),
		Close:      dec(closePx),
		Volume:     dec(volume),
		ProviderID: "akshare",
	}
}

func TestScorePerfectBatch(t *testing.T) {
	base := time.Date(2024, 1, 4, 16, 0, 0, 0, time.UTC)
	records := []model.CanonicalRecord{
		record("600519.SH", base, 1671, 1690, 1665, 1688, 28400),
		record("600519.SH", base.Add(24*time.Hour), 1688, 1712, 1680, 1700, 31250),
	}
	score := NewScorer().Score(records)
	assert.Equal(t, 100, score.Score)
	assert.True(t, score.Perfect())
	assert.Zero(t, score.MissingFieldCount)
	assert.Equal(t, []string{"required_fields", "numeric_range", "temporal_order"}, score.Basis)
}

func TestScoreMissingClose(t *testing.T) {
	base := time.Date(2024, 1, 4, 16, 0, 0, 0, time.UTC)
	rec := record("600519.SH", base, 1671, 1690, 1665, 1688, 28400)
	rec.Close = decimal.NullDecimal{}

	score := NewScorer().Score([]model.CanonicalRecord{rec})
	assert.Equal(t, 50, score.Score)
	assert.Equal(t, 1, score.MissingFieldCount)
}

func TestScoreRangeViolations(t *testing.T) {
	base := time.Date(2024, 1, 4, 16, 0, 0, 0, time.UTC)
	good := record("000001.SZ", base, 10.5, 10.9, 10.4, 10.8, 1520)
	highBelowLow := record("000001.SZ", base.Add(24*time.Hour), 10.5, 10.0, 10.4, 10.8, 1520)
	negativePrice := record("000001.SZ", base.Add(48*time.Hour), 10.5, 10.9, 10.4, -1, 1520)

	score := NewScorer().Score([]model.CanonicalRecord{good, highBelowLow, negativePrice})
	assert.Equal(t, 2, score.OutOfRangeCount)
	assert.Equal(t, 80, score.Score)
}

func TestScoreOutOfOrderTimestamps(t *testing.T) {
	base := time.Date(2024, 1, 4, 16, 0, 0, 0, time.UTC)
	records := []model.CanonicalRecord{
		record("600519.SH", base.Add(24*time.Hour), 1671, 1690, 1665, 1688, 28400),
		record("600519.SH", base, 1688, 1712, 1680, 1700, 31250),
		record("600519.SH", base, 1688, 1712, 1680, 1700, 31250), // duplicate
	}
	score := NewScorer().Score(records)
	assert.Equal(t, 2, score.OutOfOrderCount)
}

func TestScoreEmptyBatch(t *testing.T) {
	score := NewScorer().Score(nil)
	assert.Zero(t, score.Score)
}

package quality

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
)

// Check weights. The score is a weighted completion percentage, never a
// binary pass/fail; policy belongs to the caller.
const (
	weightRequired = 50
	weightRange    = 30
	weightOrder    = 20
)

// Scorer evaluates standardized batches. Stateless and safe for
// concurrent use.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score grades one symbol's standardized batch on required-field
// presence, numeric range sanity and temporal ordering.
func (s *Scorer) Score(records []model.CanonicalRecord) model.QualityScore {
	basis := []string{"required_fields", "numeric_range", "temporal_order"}
	if len(records) == 0 {
		return model.QualityScore{Score: 0, Basis: basis}
	}

	missing := 0
	outOfRange := 0
	outOfOrder := 0
	lastTs := make(map[string]time.Time, 1)

	for _, rec := range records {
		if rec.Symbol == "" || rec.Timestamp.IsZero() || !rec.Close.Valid {
			missing++
		}
		if !rangeSane(rec) {
			outOfRange++
		}
		if prev, ok := lastTs[rec.Symbol]; ok && !rec.Timestamp.After(prev) {
			outOfOrder++
		}
		lastTs[rec.Symbol] = rec.Timestamp
	}

	n := float64(len(records))
	score := weightRequired*(n-float64(missing))/n +
		weightRange*(n-float64(outOfRange))/n +
		weightOrder*(n-float64(outOfOrder))/n

	return model.QualityScore{
		Score:             int(math.Round(score)),
		MissingFieldCount: missing,
		OutOfRangeCount:   outOfRange,
		OutOfOrderCount:   outOfOrder,
		Basis:             basis,
	}
}

func rangeSane(rec model.CanonicalRecord) bool {
	for _, d := range [...]decimal.NullDecimal{rec.Open, rec.High, rec.Low, rec.Close} {
		if d.Valid && !d.Decimal.IsPositive() {
			return false
		}
	}
	if rec.Volume.Valid && rec.Volume.Decimal.IsNegative() {
		return false
	}
	if rec.High.Valid && rec.Low.Valid && rec.High.Decimal.LessThan(rec.Low.Decimal) {
		return false
	}
	return true
}

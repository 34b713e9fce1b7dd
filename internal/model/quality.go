package model

// QualityScore is a 0-100 completeness/validity metric attached to one
// standardized batch. It is advisory: callers decide whether a low score
// blocks a write.
type QualityScore struct {
	Score             int
	MissingFieldCount int
	OutOfRangeCount   int
	OutOfOrderCount   int
	Basis             []string
}

// Perfect reports whether every check passed.
func (q QualityScore) Perfect() bool {
	return q.Score >= 100
}

package enum

// ErrorKind tags a per-symbol write failure with the stage it failed at.
type ErrorKind uint8

const (
	_error_kind_beg ErrorKind = iota
	ErrorKindFetch
	ErrorKindStandardize
	ErrorKindQuality
	ErrorKindStorage
	ErrorKindCancelled
	_error_kind_end
)

func (e ErrorKind) IsAvailable() bool {
	return e > _error_kind_beg && e < _error_kind_end
}

func (e ErrorKind) String() string {
	switch e {
	case ErrorKindFetch:
		return "fetch"
	case ErrorKindStandardize:
		return "standardize"
	case ErrorKindQuality:
		return "quality"
	case ErrorKindStorage:
		return "storage"
	case ErrorKindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

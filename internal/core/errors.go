package core

import "errors"

// Engine failure kinds. Callers match with errors.Is; the HTTP layer maps
// them to stable kind strings via KindOf. An empty-but-valid result is never
// one of these.
var (
	ErrInvalidPeriod  = errors.New("invalid period")
	ErrMissingColumn  = errors.New("missing column")
	ErrEmptySelection = errors.New("empty selection")
	ErrUnknownStudent = errors.New("unknown student")
)

// KindOf returns the stable kind identifier for an engine error, or "" when
// err is not an engine failure.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPeriod):
		return "invalid_period"
	case errors.Is(err, ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, ErrEmptySelection):
		return "empty_selection"
	case errors.Is(err, ErrUnknownStudent):
		return "unknown_student"
	default:
		return ""
	}
}

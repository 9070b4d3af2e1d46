package terminology

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the bridge. Callers match them with errors.Is.
var (
	ErrMalformedRow        = errors.New("malformed row")
	ErrDuplicateSourceCode = errors.New("duplicate source code")
	ErrQueryTooShort       = errors.New("query too short")
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// RowError points at the ingestion row that made Build fail. Row is 1-based
// and counts data rows only.
type RowError struct {
	Row   int
	Field string
	Code  string
	Err   error
}

func (e *RowError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("row %d: %v: field %q is empty", e.Row, e.Err, e.Field)
	case e.Code != "":
		return fmt.Sprintf("row %d: %v: %q", e.Row, e.Err, e.Code)
	default:
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
}

func (e *RowError) Unwrap() error {
	return e.Err
}

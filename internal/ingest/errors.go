package ingest

import (
	"errors"
	"fmt"
	"strings"

	"BankRecon/internal/formats"
)

var (
	ErrUnknownFormat           = errors.New("unknown format")
	ErrUnreadableFile          = errors.New("unreadable file")
	ErrColumnCountMismatch     = errors.New("column count mismatch")
	ErrHeaderNotFound          = errors.New("header not found")
	ErrMissingCanonicalColumns = errors.New("missing canonical columns")
)

// Error is a structural ingestion failure. Kind is one of the sentinels above, so
// callers can use errors.Is; the remaining fields describe what was found.
type Error struct {
	Kind     error
	Format   formats.ID
	Detail   string
	Expected int
	Observed int
	Missing  []formats.Field
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", e.Kind, e.Format)
	switch {
	case errors.Is(e.Kind, ErrColumnCountMismatch):
		fmt.Fprintf(&b, ": expected %d columns, found %d", e.Expected, e.Observed)
	case len(e.Missing) > 0:
		names := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			names[i] = string(f)
		}
		fmt.Fprintf(&b, ": %s", strings.Join(names, ", "))
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func structural(kind error, id formats.ID, detail string) *Error {
	return &Error{Kind: kind, Format: id, Detail: detail}
}

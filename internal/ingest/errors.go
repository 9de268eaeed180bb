package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInput marks fatal input problems: a missing file, a missing required
// column, or a file no supported encoding can decode. Callers abort the
// run on any error wrapping ErrInput — no partial output is written.
var ErrInput = errors.New("input error")

// MissingColumnsError reports required header names absent from the file,
// together with the headers that were found, so the caller can spot a
// renamed export column immediately.
type MissingColumnsError struct {
	Missing   []string
	Available []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required column(s) %s (available: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrInput }

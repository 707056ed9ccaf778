package records

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound is matched by every error returned when a source cannot be opened.
	ErrSourceNotFound = errors.New("source not found")

	// ErrMalformedRecord is matched by every arity failure.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrInvalidOptions is returned when Options cannot describe a record layout.
	ErrInvalidOptions = errors.New("invalid reader options")

	// ErrReaderConsumed is yielded when a Reader is iterated a second time.
	ErrReaderConsumed = errors.New("reader already consumed")
)

// SourceError reports a source that could not be opened for reading.
type SourceError struct {
	Source string
	Err    error // Underlying os error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("can't open '%s' for reading: %v", e.Source, e.Err)
}

// Unwrap exposes both the taxonomy sentinel and the os error.
func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceNotFound, e.Err}
}

// MalformedRecordError reports a line whose field count does not match the layout.
type MalformedRecordError struct {
	Source string
	Line   int // 1-based physical line, header included
	Got    int
	Want   int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("'%s' line: %d: read %d fields but expected %d", e.Source, e.Line, e.Got, e.Want)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

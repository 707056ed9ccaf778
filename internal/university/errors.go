package university

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedReference is matched when a record names a student,
	// instructor or major that does not exist.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrDuplicateKey is matched when a roster lists the same CWID twice.
	ErrDuplicateKey = errors.New("duplicate key")
)

// ReferenceError names the missing entity behind an unresolved reference.
type ReferenceError struct {
	Entity string // "student", "instructor" or "major"
	Key    string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: unknown %s %q", ErrUnresolvedReference, e.Entity, e.Key)
}

func (e *ReferenceError) Unwrap() error { return ErrUnresolvedReference }

// BuildError reports a structural fault that stopped a build. Diagnostics
// holds everything recorded before the fault.
type BuildError struct {
	Stage       Stage
	Diagnostics []Diagnostic
	Err         error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build aborted in %s: %v", e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

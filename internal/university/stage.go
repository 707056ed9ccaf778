package university

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a build tries to skip or repeat a stage.
var ErrInvalidTransition = errors.New("invalid stage transition")

// Stage is a step of the ingestion pipeline. Stages run strictly in
// declaration order and Ready is terminal.
type Stage int

const (
	StageStart Stage = iota
	StageLoadMajors
	StageLoadStudents
	StageLoadInstructors
	StageLoadGrades
	StageReady
)

var stageNames = [...]string{
	StageStart:           "Start",
	StageLoadMajors:      "LoadMajors",
	StageLoadStudents:    "LoadStudents",
	StageLoadInstructors: "LoadInstructors",
	StageLoadGrades:      "LoadGrades",
	StageReady:           "Ready",
}

func (s Stage) String() string {
	if s < StageStart || s > StageReady {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTerminal reports whether no stage follows s.
func (s Stage) IsTerminal() bool { return s == StageReady }

// transition validates moving from cur to next. Only the immediate successor
// is allowed.
func transition(cur, next Stage) error {
	if cur.IsTerminal() || next != cur+1 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, next)
	}
	return nil
}

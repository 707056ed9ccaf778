package roster

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnknownGrade     = errors.New("unknown grade")
	ErrNoGradesRecorded = errors.New("no grades recorded")
)

// UnknownGradeError names the grade a GPA could not be computed from.
type UnknownGradeError struct {
	CWID   string
	Course string
	Grade  string
}

func (e *UnknownGradeError) Error() string {
	return fmt.Sprintf("%s %q for student %s in %s", ErrUnknownGrade, e.Grade, e.CWID, e.Course)
}

func (e *UnknownGradeError) Unwrap() error { return ErrUnknownGrade }

var gradePoints = map[string]float64{
	"A":  4.00,
	"A-": 3.75,
	"B+": 3.25,
	"B":  3.00,
	"B-": 2.75,
	"C+": 2.25,
	"C":  2.00,
	"C-": 0,
	"D+": 0,
	"D":  0,
	"D-": 0,
	"F":  0,
}

// GradePoints returns the point value of a letter grade.
func GradePoints(grade string) (float64, bool) {
	p, ok := gradePoints[grade]
	return p, ok
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

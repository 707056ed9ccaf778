// Package catalog holds the major registry: the required and elective course
// sets of every program, and the set algebra that turns a student's grades
// into outstanding requirements.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidClassification is matched when a course tag is neither Required nor Elective.
	ErrInvalidClassification = errors.New("invalid classification")

	// ErrUnknownMajor is returned when a lookup names a major that was never defined.
	ErrUnknownMajor = errors.New("unknown major")
)

// Classification says whether a course is required or elective for a major.
type Classification string

const (
	Required Classification = "R"
	Elective Classification = "E"
)

// ClassificationError reports an unrecognised course tag.
type ClassificationError struct {
	Value string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("%s %q: must be %q or %q", ErrInvalidClassification, e.Value, Required, Elective)
}

func (e *ClassificationError) Unwrap() error { return ErrInvalidClassification }

// ParseClassification converts a raw tag to a Classification.
// Surrounding whitespace is ignored; the comparison is case-sensitive.
func ParseClassification(s string) (Classification, error) {
	switch c := Classification(strings.TrimSpace(s)); c {
	case Required, Elective:
		return c, nil
	default:
		return "", &ClassificationError{Value: s}
	}
}

func (c Classification) String() string {
	switch c {
	case Required:
		return "required"
	case Elective:
		return "elective"
	default:
		return string(c)
	}
}

// passingGrades are the grades that satisfy a requirement.
// C- and below never count.
var passingGrades = map[string]bool{
	"A": true, "A-": true,
	"B+": true, "B": true, "B-": true,
	"C+": true, "C": true,
}

// IsPassing reports whether grade satisfies a course requirement.
func IsPassing(grade string) bool {
	return passingGrades[grade]
}

// PassingGrades returns the passing grade set, best first.
func PassingGrades() []string {
	return []string{"A", "A-", "B+", "B", "B-", "C+", "C"}
}

// CourseSet is a set of course codes.
type CourseSet map[string]struct{}

// NewCourseSet returns a set holding courses.
func NewCourseSet(courses ...string) CourseSet {
	s := make(CourseSet, len(courses))
	for _, c := range courses {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether course is in the set.
func (s CourseSet) Has(course string) bool {
	_, ok := s[course]
	return ok
}

// Minus returns the courses of s that are not in other.
func (s CourseSet) Minus(other CourseSet) CourseSet {
	out := make(CourseSet)
	for c := range s {
		if !other.Has(c) {
			out[c] = struct{}{}
		}
	}
	return out
}

// Sorted returns the courses in lexical order. Never nil.
func (s CourseSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Major is a named program of study.
type Major struct {
	name      string
	required  CourseSet
	electives CourseSet
}

// NewMajor returns an empty major.
func NewMajor(name string) *Major {
	return &Major{
		name:      name,
		required:  make(CourseSet),
		electives: make(CourseSet),
	}
}

func (m *Major) Name() string { return m.name }

// Required returns the required courses, sorted.
func (m *Major) Required() []string { return m.required.Sorted() }

// Electives returns the elective courses, sorted.
func (m *Major) Electives() []string { return m.electives.Sorted() }

// Define files course under kind. A course lives in at most one set, so
// redefining it moves it.
func (m *Major) Define(course string, kind Classification) error {
	switch kind {
	case Required:
		delete(m.electives, course)
		m.required[course] = struct{}{}
	case Elective:
		delete(m.required, course)
		m.electives[course] = struct{}{}
	default:
		return &ClassificationError{Value: string(kind)}
	}
	return nil
}

// Remaining is the outcome of checking a student's grades against a major.
type Remaining struct {
	Major     string
	Completed CourseSet // Every course with a passing grade, required or not
	Required  CourseSet // Required courses not yet passed
	Electives CourseSet // Elective courses not yet passed
}

// Remaining computes outstanding courses from a course -> grade mapping.
func (m *Major) Remaining(grades map[string]string) Remaining {
	completed := make(CourseSet)
	for course, grade := range grades {
		if IsPassing(grade) {
			completed[course] = struct{}{}
		}
	}

	return Remaining{
		Major:     m.name,
		Completed: completed,
		Required:  m.required.Minus(completed),
		Electives: m.electives.Minus(completed),
	}
}

// MajorSummary is the report row for one major.
type MajorSummary struct {
	Name      string   `json:"name"`
	Required  []string `json:"required"`
	Electives []string `json:"electives"`
}

// Summary returns the major's report row.
func (m *Major) Summary() MajorSummary {
	return MajorSummary{
		Name:      m.name,
		Required:  m.Required(),
		Electives: m.Electives(),
	}
}

// Catalog is the registry of majors, kept in definition order.
type Catalog struct {
	majors map[string]*Major
	order  []string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{majors: make(map[string]*Major)}
}

// Define creates major if needed and files course under kind.
// An invalid kind leaves the catalog untouched, including not creating the major.
func (c *Catalog) Define(major, course string, kind Classification) error {
	if kind != Required && kind != Elective {
		return &ClassificationError{Value: string(kind)}
	}

	m, ok := c.majors[major]
	if !ok {
		m = NewMajor(major)
		c.majors[major] = m
		c.order = append(c.order, major)
	}
	return m.Define(course, kind)
}

// Major looks up a major by name.
func (c *Catalog) Major(name string) (*Major, bool) {
	m, ok := c.majors[name]
	return m, ok
}

// Len returns the number of majors.
func (c *Catalog) Len() int { return len(c.order) }

// Majors returns all majors in definition order.
func (c *Catalog) Majors() []*Major {
	out := make([]*Major, len(c.order))
	for i, name := range c.order {
		out[i] = c.majors[name]
	}
	return out
}

// RemainingCourses checks grades against the named major.
// An unknown major is an error, never an empty result.
func (c *Catalog) RemainingCourses(major string, grades map[string]string) (Remaining, error) {
	m, ok := c.majors[major]
	if !ok {
		return Remaining{}, fmt.Errorf("%w: %q", ErrUnknownMajor, major)
	}
	return m.Remaining(grades), nil
}

// Summaries returns one row per major in definition order.
func (c *Catalog) Summaries() []MajorSummary {
	out := make([]MajorSummary, len(c.order))
	for i, name := range c.order {
		out[i] = c.majors[name].Summary()
	}
	return out
}

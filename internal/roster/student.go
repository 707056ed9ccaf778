package roster

import (
	"errors"
	"sort"

	"github.com/JonMunkholm/gradebook/internal/catalog"
)

// Student is one enrolled student. The major is resolved when the student is
// created and never changes.
type Student struct {
	cwid   string
	name   string
	major  *catalog.Major
	grades map[string]string
}

// NewStudent returns a student with no grades.
func NewStudent(cwid, name string, major *catalog.Major) *Student {
	return &Student{
		cwid:   cwid,
		name:   name,
		major:  major,
		grades: make(map[string]string),
	}
}

func (s *Student) Key() string  { return s.cwid }
func (s *Student) CWID() string { return s.cwid }
func (s *Student) Name() string { return s.name }

// Major returns the student's major.
func (s *Student) Major() *catalog.Major { return s.major }

// RecordGrade sets the grade for course. A later grade for the same course wins.
func (s *Student) RecordGrade(course, grade string) {
	s.grades[course] = grade
}

// Grades returns a copy of the course -> grade map.
func (s *Student) Grades() map[string]string {
	out := make(map[string]string, len(s.grades))
	for c, g := range s.grades {
		out[c] = g
	}
	return out
}

// Courses returns every graded course, sorted.
func (s *Student) Courses() []string {
	out := make([]string, 0, len(s.grades))
	for c := range s.grades {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Remaining checks the student's grades against their major.
func (s *Student) Remaining() catalog.Remaining {
	return s.major.Remaining(s.grades)
}

// GPA returns the unrounded mean grade points over every recorded course.
func (s *Student) GPA() (float64, error) {
	if len(s.grades) == 0 {
		return 0, ErrNoGradesRecorded
	}

	// Sum in course order so the result does not depend on map iteration.
	var total float64
	for _, course := range s.Courses() {
		grade := s.grades[course]
		p, ok := GradePoints(grade)
		if !ok {
			return 0, &UnknownGradeError{CWID: s.cwid, Course: course, Grade: grade}
		}
		total += p
	}
	return total / float64(len(s.grades)), nil
}

// StudentSummary is the report row for one student.
type StudentSummary struct {
	CWID               string   `json:"cwid"`
	Name               string   `json:"name"`
	Major              string   `json:"major"`
	Completed          []string `json:"completed"`
	RemainingRequired  []string `json:"remaining_required"`
	RemainingElectives []string `json:"remaining_electives"`
	GPA                *float64 `json:"gpa"` // nil when no grades are recorded
}

// Summary builds the student's report row with GPA rounded to two decimals.
func (s *Student) Summary() (StudentSummary, error) {
	rem := s.Remaining()
	sum := StudentSummary{
		CWID:               s.cwid,
		Name:               s.name,
		Major:              s.major.Name(),
		Completed:          rem.Completed.Sorted(),
		RemainingRequired:  rem.Required.Sorted(),
		RemainingElectives: rem.Electives.Sorted(),
	}

	gpa, err := s.GPA()
	switch {
	case err == nil:
		r := round2(gpa)
		sum.GPA = &r
	case errors.Is(err, ErrNoGradesRecorded):
	default:
		return sum, err
	}
	return sum, nil
}

package store

import (
	"context"
	"sort"

	"github.com/JonMunkholm/gradebook/internal/catalog"
	"github.com/JonMunkholm/gradebook/internal/roster"
	"github.com/JonMunkholm/gradebook/internal/university"
)

// MajorRows flattens majors into (major, course, type) tuples, required
// courses first.
func MajorRows(majors []catalog.MajorSummary) [][]any {
	var out [][]any
	for _, m := range majors {
		for _, c := range m.Required {
			out = append(out, []any{m.Name, c, string(catalog.Required)})
		}
		for _, c := range m.Electives {
			out = append(out, []any{m.Name, c, string(catalog.Elective)})
		}
	}
	return out
}

// StudentRows returns (cwid, name, major) tuples.
func StudentRows(students []*roster.Student) [][]any {
	out := make([][]any, 0, len(students))
	for _, s := range students {
		out = append(out, []any{s.CWID(), s.Name(), s.Major().Name()})
	}
	return out
}

// InstructorRows returns (cwid, name, dept) tuples.
func InstructorRows(instructors []*roster.Instructor) [][]any {
	out := make([][]any, 0, len(instructors))
	for _, i := range instructors {
		out = append(out, []any{i.CWID(), i.Name(), i.Dept()})
	}
	return out
}

// GradeRows returns (student_cwid, course, grade, instructor_cwid) tuples.
func GradeRows(ledger []university.Enrollment) [][]any {
	out := make([][]any, 0, len(ledger))
	for _, e := range ledger {
		out = append(out, []any{e.StudentCWID, e.Course, e.Grade, e.InstructorCWID})
	}
	return out
}

// Snapshot answers the completed courses report from memory, with the same
// rows and order as the Postgres join. It serves when no database is configured.
type Snapshot struct {
	rows []GradeRow
}

// NewSnapshot joins the ledger of src with its rosters.
func NewSnapshot(src PublishSource) *Snapshot {
	students := make(map[string]*roster.Student)
	for _, s := range src.Students() {
		students[s.CWID()] = s
	}
	instructors := make(map[string]*roster.Instructor)
	for _, i := range src.Instructors() {
		instructors[i.CWID()] = i
	}

	rows := []GradeRow{}
	for _, e := range src.Enrollments() {
		s, sok := students[e.StudentCWID]
		i, iok := instructors[e.InstructorCWID]
		if !sok || !iok {
			continue
		}
		rows = append(rows, GradeRow{
			Name:       s.Name(),
			CWID:       s.CWID(),
			Course:     e.Course,
			Grade:      e.Grade,
			Instructor: i.Name(),
		})
	}

	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		if ra.Name != rb.Name {
			return ra.Name < rb.Name
		}
		if ra.CWID != rb.CWID {
			return ra.CWID < rb.CWID
		}
		return ra.Course < rb.Course
	})
	return &Snapshot{rows: rows}
}

// CompletedGrades returns every graded course, ordered by student name.
func (s *Snapshot) CompletedGrades(ctx context.Context) ([]GradeRow, error) {
	out := make([]GradeRow, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

// StudentGrades returns the graded courses of one student.
func (s *Snapshot) StudentGrades(ctx context.Context, cwid string) ([]GradeRow, error) {
	out := []GradeRow{}
	for _, r := range s.rows {
		if r.CWID == cwid {
			out = append(out, r)
		}
	}
	return out, nil
}

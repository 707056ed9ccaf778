// Package report renders report rows as aligned plain-text tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/gradebook/internal/catalog"
	"github.com/JonMunkholm/gradebook/internal/roster"
	"github.com/JonMunkholm/gradebook/internal/store"
	"github.com/JonMunkholm/gradebook/internal/university"
)

// table buffers rows and writes them through a tabwriter on flush.
type table struct {
	tw  *tabwriter.Writer
	err error
}

func newTable(w io.Writer, title string, header ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	if title != "" {
		t.line(title)
	}
	t.row(header...)

	dashes := make([]string, len(header))
	for i, h := range header {
		dashes[i] = strings.Repeat("-", len(h))
	}
	t.row(dashes...)
	return t
}

func (t *table) line(s string) {
	if t.err == nil {
		_, t.err = fmt.Fprintln(t.tw, s)
	}
}

func (t *table) row(cells ...string) {
	t.line(strings.Join(cells, "\t") + "\t")
}

func (t *table) flush() error {
	if t.err != nil {
		return t.err
	}
	return t.tw.Flush()
}

// list joins courses for a cell. An empty list prints as "None".
func list(courses []string) string {
	if len(courses) == 0 {
		return "None"
	}
	return strings.Join(courses, ", ")
}

func gpa(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// Majors writes the major summary table.
func Majors(w io.Writer, rows []catalog.MajorSummary) error {
	t := newTable(w, "Majors Summary", "Major", "Required Courses", "Electives")
	for _, r := range rows {
		t.row(r.Name, list(r.Required), list(r.Electives))
	}
	return t.flush()
}

// Students writes the student summary table.
func Students(w io.Writer, rows []roster.StudentSummary) error {
	t := newTable(w, "Student Summary",
		"CWID", "Name", "Major", "Completed Courses", "Remaining Required", "Remaining Electives", "GPA")
	for _, r := range rows {
		t.row(r.CWID, r.Name, r.Major,
			list(r.Completed), list(r.RemainingRequired), list(r.RemainingElectives), gpa(r.GPA))
	}
	return t.flush()
}

// Instructors writes one line per (instructor, course).
func Instructors(w io.Writer, rows []roster.InstructorSummary) error {
	t := newTable(w, "Instructor Summary", "CWID", "Name", "Dept", "Course", "Students")
	for _, r := range rows {
		t.row(r.CWID, r.Name, r.Dept, r.Course, strconv.Itoa(r.Students))
	}
	return t.flush()
}

// Grades writes the completed-courses table.
func Grades(w io.Writer, rows []store.GradeRow) error {
	t := newTable(w, "Student Grade Summary", "Name", "CWID", "Course", "Grade", "Instructor")
	for _, r := range rows {
		t.row(r.Name, r.CWID, r.Course, r.Grade, r.Instructor)
	}
	return t.flush()
}

// Diagnostics writes the records skipped or replaced while loading.
// Nothing is written when there are none.
func Diagnostics(w io.Writer, diags []university.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	t := newTable(w, "Load Diagnostics", "Stage", "Kind", "Source", "Line", "Key", "Message")
	for _, d := range diags {
		t.row(d.Stage.String(), string(d.Kind), d.Source, strconv.Itoa(d.Line), d.Key, d.Message)
	}
	return t.flush()
}

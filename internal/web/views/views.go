// Package views holds the HTML report pages as templ components.
package views

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/gradebook/internal/catalog"
	"github.com/JonMunkholm/gradebook/internal/roster"
	"github.com/JonMunkholm/gradebook/internal/store"
	"github.com/JonMunkholm/gradebook/internal/university"
)

// page accumulates the first write error so markup can be emitted without
// checking every call.
type page struct {
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *page) tag(name, body string) {
	p.raw("<" + name + ">")
	p.text(body)
	p.raw("</" + name + ">")
}

func (p *page) table(caption string, header []string, rows [][]string) {
	p.raw(`<table class="report">`)
	p.tag("caption", caption)
	p.raw("<thead><tr>")
	for _, h := range header {
		p.tag("th", h)
	}
	p.raw("</tr></thead><tbody>")
	for _, r := range rows {
		p.raw("<tr>")
		for _, c := range r {
			p.tag("td", c)
		}
		p.raw("</tr>")
	}
	p.raw("</tbody></table>")
}

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.tag("title", title)
		p.raw(`<style>table.report{border-collapse:collapse;margin:1em 0}` +
			`table.report td,table.report th{border:1px solid #ccc;padding:.25em .5em;text-align:left}</style>`)
		p.raw(`</head><body><nav><a href="/">Summary</a> | <a href="/completed">Completed courses</a></nav>`)
		p.tag("h1", title)
		if p.err != nil {
			return p.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		p.raw("</body></html>")
		return p.err
	})
}

func courses(list []string) string {
	if len(list) == 0 {
		return "None"
	}
	return strings.Join(list, ", ")
}

// Summary renders the majors, students, instructors and diagnostics tables.
func Summary(majors []catalog.MajorSummary, students []roster.StudentSummary,
	instructors []roster.InstructorSummary, diags []university.Diagnostic) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}

		rows := make([][]string, 0, len(majors))
		for _, m := range majors {
			rows = append(rows, []string{m.Name, courses(m.Required), courses(m.Electives)})
		}
		p.table("Majors", []string{"Major", "Required Courses", "Electives"}, rows)

		rows = make([][]string, 0, len(students))
		for _, s := range students {
			gpa := "N/A"
			if s.GPA != nil {
				gpa = strconv.FormatFloat(*s.GPA, 'f', 2, 64)
			}
			rows = append(rows, []string{s.CWID, s.Name, s.Major,
				courses(s.Completed), courses(s.RemainingRequired), courses(s.RemainingElectives), gpa})
		}
		p.table("Students", []string{"CWID", "Name", "Major", "Completed Courses",
			"Remaining Required", "Remaining Electives", "GPA"}, rows)

		rows = make([][]string, 0, len(instructors))
		for _, i := range instructors {
			rows = append(rows, []string{i.CWID, i.Name, i.Dept, i.Course, strconv.Itoa(i.Students)})
		}
		p.table("Instructors", []string{"CWID", "Name", "Dept", "Course", "Students"}, rows)

		if len(diags) > 0 {
			rows = make([][]string, 0, len(diags))
			for _, d := range diags {
				rows = append(rows, []string{d.Stage.String(), string(d.Kind), d.Source,
					strconv.Itoa(d.Line), d.Key, d.Message})
			}
			p.table("Skipped records", []string{"Stage", "Kind", "Source", "Line", "Key", "Message"}, rows)
		}
		return p.err
	})
}

// Completed renders the student grade summary.
func Completed(rows []store.GradeRow) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		cells := make([][]string, 0, len(rows))
		for _, r := range rows {
			cells = append(cells, []string{r.Name, r.CWID, r.Course, r.Grade, r.Instructor})
		}
		p.table("Student grade summary", []string{"Name", "CWID", "Course", "Grade", "Instructor"}, cells)
		return p.err
	})
}

// Error renders a user-facing error with its support code.
func Error(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<div class="error" role="alert">`)
		p.tag("p", message)
		if action != "" {
			p.tag("p", action)
		}
		p.raw("<p><small>Code: ")
		p.text(code)
		p.raw("</small></p></div>")
		return p.err
	})
}

// Package university builds the in-memory model of one institution from its
// delimited sources and answers report queries against it.
//
// Build walks a fixed pipeline:
//
//	Start -> LoadMajors -> LoadStudents -> LoadInstructors -> LoadGrades -> Ready
//
// Structural faults (a source that cannot be opened, a line with the wrong
// field count) abort the build and no later stage runs. Semantic faults (an
// unknown major, student or instructor, a bad classification tag, a repeated
// CWID) are recorded as Diagnostics and loading carries on. A University is
// only ever handed out once it is Ready, after which it is read-only and safe
// for concurrent use.
package university

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/gradebook/internal/catalog"
	"github.com/JonMunkholm/gradebook/internal/config"
	"github.com/JonMunkholm/gradebook/internal/logging"
	"github.com/JonMunkholm/gradebook/internal/records"
	"github.com/JonMunkholm/gradebook/internal/roster"
)

// ContextCheckInterval is how many records are read between context checks.
const ContextCheckInterval = 100

// Enrollment is one accepted grade record, kept in load order.
type Enrollment struct {
	StudentCWID    string `json:"student_cwid"`
	Course         string `json:"course"`
	Grade          string `json:"grade"`
	InstructorCWID string `json:"instructor_cwid"`
}

// StageStats summarises one completed load stage.
type StageStats struct {
	Stage    Stage         `json:"stage"`
	Source   string        `json:"source"`
	Records  int           `json:"records"`
	Skipped  int           `json:"skipped"`
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration_ns"`
}

// University is the loaded model.
type University struct {
	loadID uuid.UUID
	name   string
	stage  Stage

	catalog     *catalog.Catalog
	students    *roster.Store[*roster.Student]
	instructors *roster.Store[*roster.Instructor]
	enrollments []Enrollment
	diagnostics []Diagnostic
	stats       []StageStats

	logger *slog.Logger
}

type options struct {
	logger *slog.Logger
}

// Option configures Build.
type Option func(*options)

// WithLogger sets the logger stage summaries and diagnostics are written to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// recordHandler applies one record to the model. It returns false when the
// record was skipped.
type recordHandler func(rec records.Record, col map[string]int, source string) bool

// Build loads ds and returns a Ready university. On a structural fault it
// returns nil and a *BuildError.
func Build(ctx context.Context, ds config.Dataset, opts ...Option) (*University, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	u := &University{
		loadID:      uuid.New(),
		name:        ds.Name,
		stage:       StageStart,
		catalog:     catalog.New(),
		students:    roster.NewStore[*roster.Student](),
		instructors: roster.NewStore[*roster.Instructor](),
	}
	u.logger = logging.ForLoad(o.logger, u.loadID, ds.Name)

	stages := []struct {
		stage   Stage
		key     string
		src     config.Source
		handler recordHandler
	}{
		{StageLoadMajors, "majors", ds.Majors, u.loadMajor},
		{StageLoadStudents, "students", ds.Students, u.loadStudent},
		{StageLoadInstructors, "instructors", ds.Instructors, u.loadInstructor},
		{StageLoadGrades, "grades", ds.Grades, u.loadGrade},
	}

	start := time.Now()
	u.logger.Info("build started", "dir", ds.Dir)

	for _, st := range stages {
		if err := u.advance(st.stage); err != nil {
			return nil, u.abort(err)
		}
		if err := u.runStage(ctx, ds.Path(st.src), st.src, config.RequiredColumns[st.key], st.handler); err != nil {
			return nil, u.abort(err)
		}
	}

	if err := u.advance(StageReady); err != nil {
		return nil, u.abort(err)
	}

	u.logger.Info("build complete",
		"majors", u.catalog.Len(),
		"students", u.students.Len(),
		"instructors", u.instructors.Len(),
		"enrollments", len(u.enrollments),
		"diagnostics", len(u.diagnostics),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return u, nil
}

func (u *University) advance(next Stage) error {
	if err := transition(u.stage, next); err != nil {
		return err
	}
	u.stage = next
	return nil
}

func (u *University) abort(err error) *BuildError {
	u.logger.Error("build aborted", "stage", u.stage.String(), "error", err)
	diags := make([]Diagnostic, len(u.diagnostics))
	copy(diags, u.diagnostics)
	return &BuildError{Stage: u.stage, Diagnostics: diags, Err: err}
}

// runStage streams one source through handle. The reader is released before
// runStage returns, whatever the outcome.
func (u *University) runStage(ctx context.Context, path string, src config.Source, columns []string, handle recordHandler) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	col, err := src.Layout(columns...)
	if err != nil {
		return err
	}

	rd, err := records.Open(path, records.Options{
		Fields:    src.Fields(),
		Separator: src.Separator,
		Header:    src.Header,
	})
	if err != nil {
		return err
	}

	started := time.Now()
	stats := StageStats{Stage: u.stage, Source: path}

	for rec, err := range rd.All() {
		if err != nil {
			return err
		}

		stats.Records++
		if stats.Records%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if !handle(rec, col, path) {
			stats.Skipped++
		}
	}

	stats.Bytes = rd.BytesRead()
	stats.Duration = time.Since(started)
	u.stats = append(u.stats, stats)

	u.logger.Info("stage complete",
		"stage", u.stage.String(),
		"source", path,
		"records", stats.Records,
		"skipped", stats.Skipped,
		"bytes", stats.Bytes,
		"duration_ms", stats.Duration.Milliseconds(),
	)
	return nil
}

// ==================================================================
// Stage handlers
// ==================================================================

func (u *University) loadMajor(rec records.Record, col map[string]int, source string) bool {
	major := rec.Fields[col[config.ColMajor]]
	course := rec.Fields[col[config.ColCourse]]

	kind, err := catalog.ParseClassification(rec.Fields[col[config.ColType]])
	if err != nil {
		u.diagnose(Diagnostic{
			Kind:   KindInvalidClassification,
			Source: source,
			Line:   rec.Line,
			Key:    major + " " + course,
			Err:    err,
		})
		return false
	}

	// kind is already validated, Define cannot fail here
	_ = u.catalog.Define(major, course, kind)
	return true
}

func (u *University) loadStudent(rec records.Record, col map[string]int, source string) bool {
	cwid := rec.Fields[col[config.ColCWID]]
	majorName := rec.Fields[col[config.ColMajor]]

	major, ok := u.catalog.Major(majorName)
	if !ok {
		u.diagnose(Diagnostic{
			Kind:   KindUnresolvedReference,
			Source: source,
			Line:   rec.Line,
			Key:    cwid,
			Err:    fmt.Errorf("student %s: %w", cwid, &ReferenceError{Entity: "major", Key: majorName}),
		})
		return false
	}

	if u.students.Put(roster.NewStudent(cwid, rec.Fields[col[config.ColName]], major)) {
		u.diagnose(Diagnostic{
			Kind:   KindDuplicateKey,
			Source: source,
			Line:   rec.Line,
			Key:    cwid,
			Err:    fmt.Errorf("%w: student %s listed again, later record kept", ErrDuplicateKey, cwid),
		})
	}
	return true
}

func (u *University) loadInstructor(rec records.Record, col map[string]int, source string) bool {
	cwid := rec.Fields[col[config.ColCWID]]

	inst := roster.NewInstructor(cwid, rec.Fields[col[config.ColName]], rec.Fields[col[config.ColDept]])
	if u.instructors.Put(inst) {
		u.diagnose(Diagnostic{
			Kind:   KindDuplicateKey,
			Source: source,
			Line:   rec.Line,
			Key:    cwid,
			Err:    fmt.Errorf("%w: instructor %s listed again, later record kept", ErrDuplicateKey, cwid),
		})
	}
	return true
}

func (u *University) loadGrade(rec records.Record, col map[string]int, source string) bool {
	e := Enrollment{
		StudentCWID:    rec.Fields[col[config.ColStudentCWID]],
		Course:         rec.Fields[col[config.ColCourse]],
		Grade:          rec.Fields[col[config.ColGrade]],
		InstructorCWID: rec.Fields[col[config.ColInstructorCWID]],
	}

	student, sok := u.students.Get(e.StudentCWID)
	if !sok {
		u.diagnose(Diagnostic{
			Kind:   KindUnresolvedReference,
			Source: source,
			Line:   rec.Line,
			Key:    e.StudentCWID,
			Err:    fmt.Errorf("grade for %s: %w", e.Course, &ReferenceError{Entity: "student", Key: e.StudentCWID}),
		})
	}
	instructor, iok := u.instructors.Get(e.InstructorCWID)
	if !iok {
		u.diagnose(Diagnostic{
			Kind:   KindUnresolvedReference,
			Source: source,
			Line:   rec.Line,
			Key:    e.InstructorCWID,
			Err:    fmt.Errorf("grade for %s: %w", e.Course, &ReferenceError{Entity: "instructor", Key: e.InstructorCWID}),
		})
	}
	if !sok || !iok {
		return false
	}

	student.RecordGrade(e.Course, e.Grade)
	instructor.RecordEnrollment(e.Course)
	u.enrollments = append(u.enrollments, e)
	return true
}

// ==================================================================
// Queries
// ==================================================================

func (u *University) LoadID() uuid.UUID { return u.loadID }
func (u *University) Name() string      { return u.name }
func (u *University) Stage() Stage      { return u.stage }

// Catalog returns the major registry.
func (u *University) Catalog() *catalog.Catalog { return u.catalog }

// MajorSummaries returns one row per major in definition order.
func (u *University) MajorSummaries() []catalog.MajorSummary {
	return u.catalog.Summaries()
}

// StudentSummaries returns one row per student in roster order. An
// unrecognised grade on any student fails the whole report.
func (u *University) StudentSummaries() ([]roster.StudentSummary, error) {
	all := u.students.All()
	out := make([]roster.StudentSummary, 0, len(all))
	for _, s := range all {
		sum, err := s.Summary()
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

// InstructorSummaries returns one row per (instructor, course) pair.
// Instructors without enrollments contribute no rows.
func (u *University) InstructorSummaries() []roster.InstructorSummary {
	var out []roster.InstructorSummary
	for _, i := range u.instructors.All() {
		out = append(out, i.Summary()...)
	}
	return out
}

func (u *University) Student(cwid string) (*roster.Student, bool) {
	return u.students.Get(cwid)
}

func (u *University) Instructor(cwid string) (*roster.Instructor, bool) {
	return u.instructors.Get(cwid)
}

// Students returns every student in roster order.
func (u *University) Students() []*roster.Student { return u.students.All() }

// Instructors returns every instructor in roster order.
func (u *University) Instructors() []*roster.Instructor { return u.instructors.All() }

// Enrollments returns the accepted grade records in load order.
func (u *University) Enrollments() []Enrollment {
	out := make([]Enrollment, len(u.enrollments))
	copy(out, u.enrollments)
	return out
}

// Diagnostics returns every recorded diagnostic in the order it was found.
func (u *University) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(u.diagnostics))
	copy(out, u.diagnostics)
	return out
}

// Stats returns per-stage load statistics.
func (u *University) Stats() []StageStats {
	out := make([]StageStats, len(u.stats))
	copy(out, u.stats)
	return out
}

// RemainingCourses checks the student's grades against their major.
func (u *University) RemainingCourses(cwid string) (catalog.Remaining, error) {
	s, ok := u.students.Get(cwid)
	if !ok {
		return catalog.Remaining{}, &ReferenceError{Entity: "student", Key: cwid}
	}
	return u.catalog.RemainingCourses(s.Major().Name(), s.Grades())
}

package university

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/gradebook/internal/catalog"
	"github.com/JonMunkholm/gradebook/internal/config"
	"github.com/JonMunkholm/gradebook/internal/logging"
	"github.com/JonMunkholm/gradebook/internal/records"
	"github.com/JonMunkholm/gradebook/internal/roster"
)

const (
	majorsTxt = `major	type	course
SFEN	R	SSW 540
SFEN	R	SSW 564
SFEN	R	SSW 555
SFEN	R	SSW 567
SFEN	E	CS 501
SFEN	E	CS 513
SFEN	E	CS 545
SYEN	R	SYS 671
SYEN	R	SYS 612
SYEN	R	SYS 800
SYEN	E	SSW 810
SYEN	E	SSW 565
SYEN	E	SSW 540
`
	studentsTxt = `cwid	name	major
10103	Baldwin, C	SFEN
10115	Wyatt, X	SFEN
10183	Chapman, O	SYEN
`
	instructorsTxt = `cwid	name	dept
98765	Einstein, A	SFEN
98764	Feynman, R	SFEN
98760	Darwin, C	SYEN
`
	gradesTxt = `student_cwid	course	grade	instructor_cwid
10103	SSW 567	A	98765
10103	SSW 564	A-	98764
10103	CS 501	B	98764
10115	SSW 567	A	98765
10115	SSW 564	B+	98764
10183	SYS 800	A	98760
`
)

type fixture struct {
	majors, students, instructors, grades string
}

func defaultFixture() fixture {
	return fixture{majorsTxt, studentsTxt, instructorsTxt, gradesTxt}
}

// writeDataset writes f into a temp dir and returns the default layout over
// it. An empty body leaves that file out.
func writeDataset(t *testing.T, f fixture) config.Dataset {
	t.Helper()
	ds := config.DefaultDataset()
	ds.Name = "Stevens"
	ds.Dir = t.TempDir()

	for name, body := range map[string]string{
		ds.Majors.File:      f.majors,
		ds.Students.File:    f.students,
		ds.Instructors.File: f.instructors,
		ds.Grades.File:      f.grades,
	} {
		if body == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(ds.Dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return ds
}

func build(t *testing.T, f fixture) *University {
	t.Helper()
	u, err := Build(context.Background(), writeDataset(t, f), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return u
}

// ==================================================================
// Happy path
// ==================================================================

func TestBuild_Ready(t *testing.T) {
	u := build(t, defaultFixture())

	if u.Stage() != StageReady {
		t.Errorf("Stage() = %s, want Ready", u.Stage())
	}
	if u.Name() != "Stevens" {
		t.Errorf("Name() = %q", u.Name())
	}
	if len(u.Diagnostics()) != 0 {
		t.Errorf("Diagnostics() = %+v, want none", u.Diagnostics())
	}
	if got := len(u.Students()); got != 3 {
		t.Errorf("len(Students()) = %d, want 3", got)
	}
	if got := len(u.Instructors()); got != 3 {
		t.Errorf("len(Instructors()) = %d, want 3", got)
	}
	if got := len(u.Enrollments()); got != 6 {
		t.Errorf("len(Enrollments()) = %d, want 6", got)
	}
	if got := len(u.Stats()); got != 4 {
		t.Errorf("len(Stats()) = %d, want 4", got)
	}
}

func TestBuild_MajorSummaries(t *testing.T) {
	u := build(t, defaultFixture())

	want := []catalog.MajorSummary{
		{
			Name:      "SFEN",
			Required:  []string{"SSW 540", "SSW 555", "SSW 564", "SSW 567"},
			Electives: []string{"CS 501", "CS 513", "CS 545"},
		},
		{
			Name:      "SYEN",
			Required:  []string{"SYS 612", "SYS 671", "SYS 800"},
			Electives: []string{"SSW 540", "SSW 565", "SSW 810"},
		},
	}
	if got := u.MajorSummaries(); !reflect.DeepEqual(got, want) {
		t.Errorf("MajorSummaries() = %+v, want %+v", got, want)
	}
}

func TestBuild_InstructorSummaries(t *testing.T) {
	u := build(t, defaultFixture())

	want := []roster.InstructorSummary{
		{CWID: "98765", Name: "Einstein, A", Dept: "SFEN", Course: "SSW 567", Students: 2},
		{CWID: "98764", Name: "Feynman, R", Dept: "SFEN", Course: "SSW 564", Students: 2},
		{CWID: "98764", Name: "Feynman, R", Dept: "SFEN", Course: "CS 501", Students: 1},
		{CWID: "98760", Name: "Darwin, C", Dept: "SYEN", Course: "SYS 800", Students: 1},
	}
	if got := u.InstructorSummaries(); !reflect.DeepEqual(got, want) {
		t.Errorf("InstructorSummaries() = %+v, want %+v", got, want)
	}
}

func TestBuild_StudentSummaries(t *testing.T) {
	u := build(t, defaultFixture())

	got, err := u.StudentSummaries()
	if err != nil {
		t.Fatalf("StudentSummaries() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	baldwin := got[0]
	if baldwin.CWID != "10103" {
		t.Fatalf("first row = %s, want roster order", baldwin.CWID)
	}
	if want := []string{"CS 501", "SSW 564", "SSW 567"}; !reflect.DeepEqual(baldwin.Completed, want) {
		t.Errorf("Completed = %v, want %v", baldwin.Completed, want)
	}
	if want := []string{"SSW 540", "SSW 555"}; !reflect.DeepEqual(baldwin.RemainingRequired, want) {
		t.Errorf("RemainingRequired = %v, want %v", baldwin.RemainingRequired, want)
	}
	if want := []string{"CS 513", "CS 545"}; !reflect.DeepEqual(baldwin.RemainingElectives, want) {
		t.Errorf("RemainingElectives = %v, want %v", baldwin.RemainingElectives, want)
	}
	// (4 + 3.75 + 3) / 3
	if baldwin.GPA == nil || *baldwin.GPA != 3.58 {
		t.Errorf("GPA = %v, want 3.58", baldwin.GPA)
	}
}

func TestUniversity_RemainingCourses(t *testing.T) {
	u := build(t, defaultFixture())

	rem, err := u.RemainingCourses("10115")
	if err != nil {
		t.Fatalf("RemainingCourses() error = %v", err)
	}
	if want := []string{"SSW 540", "SSW 555"}; !reflect.DeepEqual(rem.Required.Sorted(), want) {
		t.Errorf("Required = %v, want %v", rem.Required.Sorted(), want)
	}

	_, err = u.RemainingCourses("00000")
	if !errors.Is(err, ErrUnresolvedReference) {
		t.Errorf("RemainingCourses(unknown) error = %v, want ErrUnresolvedReference", err)
	}
}

func TestBuild_CustomLayout(t *testing.T) {
	ds := config.Dataset{
		Name: "Pipes",
		Dir:  t.TempDir(),
		Majors: config.Source{File: "m.txt", Separator: "|",
			Columns: []string{"course", "major", "type"}},
		Students: config.Source{File: "s.txt", Separator: ";",
			Columns: []string{"cwid", "name", "major"}},
		Instructors: config.Source{File: "i.txt", Separator: "#", Header: true,
			Columns: []string{"cwid", "name", "dept"}},
		Grades: config.Source{File: "g.txt", Separator: "|",
			Columns: []string{"student_cwid", "course", "grade", "instructor_cwid", "term"}},
	}
	files := map[string]string{
		"m.txt": "SSW 540|SFEN|R\nCS 501|SFEN|E\n",
		"s.txt": "10103;Baldwin, C;SFEN\n",
		"i.txt": "CWID#Name#Dept\n98765#Einstein, A#SFEN\n",
		"g.txt": "10103|SSW 540|A|98765|F24\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(ds.Dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	u, err := Build(context.Background(), ds, WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	s, ok := u.Student("10103")
	if !ok {
		t.Fatal("student 10103 missing")
	}
	if g := s.Grades()["SSW 540"]; g != "A" {
		t.Errorf("grade = %q, want A", g)
	}
	i, _ := u.Instructor("98765")
	if i.Enrollment("SSW 540") != 1 {
		t.Errorf("Enrollment = %d, want 1", i.Enrollment("SSW 540"))
	}
	if want := []string{"SSW 540"}; !reflect.DeepEqual(u.MajorSummaries()[0].Required, want) {
		t.Errorf("Required = %v", u.MajorSummaries()[0].Required)
	}
}

// ==================================================================
// Semantic faults
// ==================================================================

func TestBuild_Diagnostics(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*fixture)
		wantKinds []Kind
		wantKeys  []string
		check     func(t *testing.T, u *University)
	}{
		{
			name: "grade for unknown student",
			mutate: func(f *fixture) {
				f.grades += "99999\tSSW 540\tA\t98765\n"
			},
			wantKinds: []Kind{KindUnresolvedReference},
			wantKeys:  []string{"99999"},
			check: func(t *testing.T, u *University) {
				i, _ := u.Instructor("98765")
				if n := i.Enrollment("SSW 540"); n != 0 {
					t.Errorf("Einstein SSW 540 = %d, want 0", n)
				}
				if n := i.Enrollment("SSW 567"); n != 2 {
					t.Errorf("Einstein SSW 567 = %d, want 2", n)
				}
				if len(u.Enrollments()) != 6 {
					t.Errorf("ledger grew for a skipped record")
				}
			},
		},
		{
			name: "grade for unknown student and instructor",
			mutate: func(f *fixture) {
				f.grades += "99999\tSSW 540\tA\t11111\n"
			},
			wantKinds: []Kind{KindUnresolvedReference, KindUnresolvedReference},
			wantKeys:  []string{"99999", "11111"},
		},
		{
			name: "grade for unknown instructor leaves student untouched",
			mutate: func(f *fixture) {
				f.grades += "10103\tSSW 540\tA\t11111\n"
			},
			wantKinds: []Kind{KindUnresolvedReference},
			wantKeys:  []string{"11111"},
			check: func(t *testing.T, u *University) {
				s, _ := u.Student("10103")
				if _, ok := s.Grades()["SSW 540"]; ok {
					t.Errorf("skipped grade was recorded")
				}
			},
		},
		{
			name: "student with unknown major",
			mutate: func(f *fixture) {
				f.students += "10999\tNobody, N\tMATH\n"
			},
			wantKinds: []Kind{KindUnresolvedReference},
			wantKeys:  []string{"10999"},
			check: func(t *testing.T, u *University) {
				if _, ok := u.Student("10999"); ok {
					t.Errorf("student with unknown major was added")
				}
			},
		},
		{
			name: "invalid classification",
			mutate: func(f *fixture) {
				f.majors += "SFEN\tX\tSSW 999\n"
			},
			wantKinds: []Kind{KindInvalidClassification},
			wantKeys:  []string{"SFEN SSW 999"},
			check: func(t *testing.T, u *University) {
				for _, m := range u.MajorSummaries() {
					for _, c := range append(m.Required, m.Electives...) {
						if c == "SSW 999" {
							t.Errorf("SSW 999 was filed under %s", m.Name)
						}
					}
				}
			},
		},
		{
			name: "duplicate student keeps the later record",
			mutate: func(f *fixture) {
				f.students += "10103\tBaldwin, Chris\tSFEN\n"
			},
			wantKinds: []Kind{KindDuplicateKey},
			wantKeys:  []string{"10103"},
			check: func(t *testing.T, u *University) {
				s, _ := u.Student("10103")
				if s.Name() != "Baldwin, Chris" {
					t.Errorf("Name = %q, want the later record", s.Name())
				}
				if len(u.Students()) != 3 {
					t.Errorf("len(Students()) = %d, want 3", len(u.Students()))
				}
				if u.Students()[0].CWID() != "10103" {
					t.Errorf("replaced student lost its roster slot")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultFixture()
			tt.mutate(&f)
			u := build(t, f)

			diags := u.Diagnostics()
			if len(diags) != len(tt.wantKinds) {
				t.Fatalf("got %d diagnostics, want %d: %+v", len(diags), len(tt.wantKinds), diags)
			}
			for i, d := range diags {
				if d.Kind != tt.wantKinds[i] || d.Key != tt.wantKeys[i] {
					t.Errorf("diag[%d] = %s/%s, want %s/%s", i, d.Kind, d.Key, tt.wantKinds[i], tt.wantKeys[i])
				}
				if d.LoadID != u.LoadID() {
					t.Errorf("diag[%d].LoadID = %s, want %s", i, d.LoadID, u.LoadID())
				}
				if d.Line == 0 || d.Source == "" || d.Message == "" {
					t.Errorf("diag[%d] incomplete: %+v", i, d)
				}
			}
			if tt.check != nil {
				tt.check(t, u)
			}
		})
	}
}

func TestBuild_DiagnosticsAreLogged(t *testing.T) {
	f := defaultFixture()
	f.grades += "99999\tSSW 540\tA\t98765\n"

	var buf bytes.Buffer
	u, err := Build(context.Background(), writeDataset(t, f), WithLogger(logging.New(&buf, "warn", "text")))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"load diagnostic", "key=99999", "stage=LoadGrades", "load_id=" + u.LoadID().String()} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

// ==================================================================
// Structural faults
// ==================================================================

func TestBuild_Aborts(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*fixture)
		wantStage Stage
		wantErr   error
		wantCode  string
		wantText  string
	}{
		{
			name:      "missing majors",
			mutate:    func(f *fixture) { f.majors = "" },
			wantStage: StageLoadMajors,
			wantErr:   records.ErrSourceNotFound,
			wantCode:  "SRC001",
		},
		{
			name:      "missing grades",
			mutate:    func(f *fixture) { f.grades = "" },
			wantStage: StageLoadGrades,
			wantErr:   records.ErrSourceNotFound,
			wantCode:  "SRC001",
		},
		{
			name:      "short student line",
			mutate:    func(f *fixture) { f.students = "cwid\tname\tmajor\n10103\tBaldwin, C\tSFEN\n10115\tWyatt, X\n" },
			wantStage: StageLoadStudents,
			wantErr:   records.ErrMalformedRecord,
			wantCode:  "REC001",
			wantText:  "line: 3: read 2 fields but expected 3",
		},
		{
			name:      "long instructor line",
			mutate:    func(f *fixture) { f.instructors += "98700\tExtra, E\tSFEN\tPHD\n" },
			wantStage: StageLoadInstructors,
			wantErr:   records.ErrMalformedRecord,
			wantCode:  "REC001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultFixture()
			tt.mutate(&f)

			u, err := Build(context.Background(), writeDataset(t, f), WithLogger(logging.Discard()))
			if u != nil {
				t.Errorf("Build() returned a university alongside an error")
			}

			var be *BuildError
			if !errors.As(err, &be) {
				t.Fatalf("error = %T %v, want *BuildError", err, err)
			}
			if be.Stage != tt.wantStage {
				t.Errorf("Stage = %s, want %s", be.Stage, tt.wantStage)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if code := MapError(err).Code; code != tt.wantCode {
				t.Errorf("MapError().Code = %s, want %s", code, tt.wantCode)
			}
			if tt.wantText != "" && !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantText)
			}
		})
	}
}

func TestBuild_AbortKeepsEarlierDiagnostics(t *testing.T) {
	f := defaultFixture()
	f.students += "10999\tNobody, N\tMATH\n"
	f.grades = ""

	_, err := Build(context.Background(), writeDataset(t, f), WithLogger(logging.Discard()))

	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("error = %v, want *BuildError", err)
	}
	if len(be.Diagnostics) != 1 || be.Diagnostics[0].Key != "10999" {
		t.Errorf("Diagnostics = %+v", be.Diagnostics)
	}
}

func TestBuild_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, writeDataset(t, defaultFixture()), WithLogger(logging.Discard()))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if code := MapError(err).Code; code != "REQ001" {
		t.Errorf("MapError().Code = %s, want REQ001", code)
	}
}

// cancelAfter is a context whose Err starts reporting context.Canceled on
// the n-th call.
type cancelAfter struct {
	context.Context
	calls, n int
}

func (c *cancelAfter) Err() error {
	c.calls++
	if c.calls >= c.n {
		return context.Canceled
	}
	return nil
}

func TestBuild_CanceledMidStage(t *testing.T) {
	var majors strings.Builder
	majors.WriteString("major\ttype\tcourse\n")
	for i := 0; i < 3*ContextCheckInterval; i++ {
		fmt.Fprintf(&majors, "SFEN\tR\tSSW %d\n", i)
	}
	f := defaultFixture()
	f.majors = majors.String()

	// First call is the stage-start check; the second comes after
	// ContextCheckInterval records.
	ctx := &cancelAfter{Context: context.Background(), n: 2}
	_, err := Build(ctx, writeDataset(t, f), WithLogger(logging.Discard()))

	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("error = %v, want *BuildError", err)
	}
	if be.Stage != StageLoadMajors {
		t.Errorf("Stage = %s, want LoadMajors", be.Stage)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if ctx.calls != 2 {
		t.Errorf("ctx.Err called %d times, want 2", ctx.calls)
	}
}

// ==================================================================
// Stages
// ==================================================================

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to Stage
		ok       bool
	}{
		{StageStart, StageLoadMajors, true},
		{StageLoadMajors, StageLoadStudents, true},
		{StageLoadStudents, StageLoadInstructors, true},
		{StageLoadInstructors, StageLoadGrades, true},
		{StageLoadGrades, StageReady, true},
		{StageStart, StageLoadStudents, false},
		{StageLoadGrades, StageLoadMajors, false},
		{StageReady, StageReady, false},
		{StageReady, Stage(6), false},
	}

	for _, tt := range tests {
		err := transition(tt.from, tt.to)
		if tt.ok && err != nil {
			t.Errorf("transition(%s, %s) error = %v", tt.from, tt.to, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("transition(%s, %s) error = %v, want ErrInvalidTransition", tt.from, tt.to, err)
		}
	}
}

func TestStage_String(t *testing.T) {
	if s := StageLoadInstructors.String(); s != "LoadInstructors" {
		t.Errorf("String() = %q", s)
	}
	if s := Stage(42).String(); s != "Stage(42)" {
		t.Errorf("String() = %q", s)
	}
}

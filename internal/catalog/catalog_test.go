package catalog

import (
	"errors"
	"reflect"
	"testing"
)

func sfen(t *testing.T) *Catalog {
	t.Helper()
	c := New()
	for _, course := range []string{"SSW 540", "SSW 555", "SSW 564", "SSW 567"} {
		if err := c.Define("SFEN", course, Required); err != nil {
			t.Fatalf("Define(%q) error = %v", course, err)
		}
	}
	for _, course := range []string{"CS 501", "CS 513", "CS 545"} {
		if err := c.Define("SFEN", course, Elective); err != nil {
			t.Fatalf("Define(%q) error = %v", course, err)
		}
	}
	return c
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		in      string
		want    Classification
		wantErr bool
	}{
		{in: "R", want: Required},
		{in: "E", want: Elective},
		{in: " R ", want: Required},
		{in: "r", wantErr: true},
		{in: "X", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseClassification(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidClassification) {
				t.Errorf("ParseClassification(%q) error = %v, want ErrInvalidClassification", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseClassification(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestIsPassing(t *testing.T) {
	for _, g := range PassingGrades() {
		if !IsPassing(g) {
			t.Errorf("IsPassing(%q) = false, want true", g)
		}
	}
	for _, g := range []string{"C-", "D+", "D", "D-", "F", "", "a"} {
		if IsPassing(g) {
			t.Errorf("IsPassing(%q) = true, want false", g)
		}
	}
}

func TestCatalog_Define(t *testing.T) {
	c := New()

	if err := c.Define("SYEN", "SYS 612", Classification("X")); !errors.Is(err, ErrInvalidClassification) {
		t.Fatalf("Define with bad kind error = %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("invalid Define created a major")
	}

	_ = c.Define("SYEN", "SYS 612", Required)
	_ = c.Define("SYEN", "SSW 540", Elective)
	_ = c.Define("SFEN", "SSW 540", Required)
	_ = c.Define("SYEN", "SYS 612", Required) // idempotent

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	want := []MajorSummary{
		{Name: "SYEN", Required: []string{"SYS 612"}, Electives: []string{"SSW 540"}},
		{Name: "SFEN", Required: []string{"SSW 540"}, Electives: []string{}},
	}
	if got := c.Summaries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Summaries() = %+v, want %+v", got, want)
	}
}

func TestMajor_LastClassificationWins(t *testing.T) {
	m := NewMajor("SFEN")
	_ = m.Define("SSW 810", Required)
	_ = m.Define("SSW 810", Elective)

	if len(m.Required()) != 0 {
		t.Errorf("Required() = %v, want empty", m.Required())
	}
	if !reflect.DeepEqual(m.Electives(), []string{"SSW 810"}) {
		t.Errorf("Electives() = %v, want [SSW 810]", m.Electives())
	}
}

func TestCatalog_RemainingCourses(t *testing.T) {
	c := sfen(t)

	tests := []struct {
		name          string
		grades        map[string]string
		wantCompleted []string
		wantRequired  []string
		wantElectives []string
	}{
		{
			name:          "two required passed",
			grades:        map[string]string{"SSW 564": "B", "SSW 567": "A"},
			wantCompleted: []string{"SSW 564", "SSW 567"},
			wantRequired:  []string{"SSW 540", "SSW 555"},
			wantElectives: []string{"CS 501", "CS 513", "CS 545"},
		},
		{
			name:          "failing grades do not count",
			grades:        map[string]string{"SSW 540": "C-", "SSW 555": "F", "CS 501": "C"},
			wantCompleted: []string{"CS 501"},
			wantRequired:  []string{"SSW 540", "SSW 555", "SSW 564", "SSW 567"},
			wantElectives: []string{"CS 513", "CS 545"},
		},
		{
			name:          "courses outside the major are completed but not subtracted",
			grades:        map[string]string{"SSW 687": "A"},
			wantCompleted: []string{"SSW 687"},
			wantRequired:  []string{"SSW 540", "SSW 555", "SSW 564", "SSW 567"},
			wantElectives: []string{"CS 501", "CS 513", "CS 545"},
		},
		{
			name: "everything done",
			grades: map[string]string{
				"SSW 540": "A", "SSW 555": "A", "SSW 564": "A", "SSW 567": "A",
				"CS 501": "B", "CS 513": "B", "CS 545": "B",
			},
			wantCompleted: []string{"CS 501", "CS 513", "CS 545", "SSW 540", "SSW 555", "SSW 564", "SSW 567"},
			wantRequired:  []string{},
			wantElectives: []string{},
		},
		{
			name:          "no grades",
			grades:        nil,
			wantCompleted: []string{},
			wantRequired:  []string{"SSW 540", "SSW 555", "SSW 564", "SSW 567"},
			wantElectives: []string{"CS 501", "CS 513", "CS 545"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.RemainingCourses("SFEN", tt.grades)
			if err != nil {
				t.Fatalf("RemainingCourses() error = %v", err)
			}
			if got.Major != "SFEN" {
				t.Errorf("Major = %q, want SFEN", got.Major)
			}
			if !reflect.DeepEqual(got.Completed.Sorted(), tt.wantCompleted) {
				t.Errorf("Completed = %v, want %v", got.Completed.Sorted(), tt.wantCompleted)
			}
			if !reflect.DeepEqual(got.Required.Sorted(), tt.wantRequired) {
				t.Errorf("Required = %v, want %v", got.Required.Sorted(), tt.wantRequired)
			}
			if !reflect.DeepEqual(got.Electives.Sorted(), tt.wantElectives) {
				t.Errorf("Electives = %v, want %v", got.Electives.Sorted(), tt.wantElectives)
			}

			for course := range got.Required {
				if got.Completed.Has(course) {
					t.Errorf("%s is both remaining and completed", course)
				}
			}
		})
	}
}

func TestCatalog_RemainingCourses_UnknownMajor(t *testing.T) {
	c := sfen(t)
	_, err := c.RemainingCourses("MATH", map[string]string{"SSW 540": "A"})
	if !errors.Is(err, ErrUnknownMajor) {
		t.Errorf("error = %v, want ErrUnknownMajor", err)
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Logical column names. A profile lists them in the order the fields appear
// on each line of a source.
const (
	ColMajor          = "major"
	ColType           = "type"
	ColCourse         = "course"
	ColCWID           = "cwid"
	ColName           = "name"
	ColDept           = "dept"
	ColStudentCWID    = "student_cwid"
	ColGrade          = "grade"
	ColInstructorCWID = "instructor_cwid"
)

// Source describes one delimited input file.
type Source struct {
	File      string   `yaml:"file"`
	Separator string   `yaml:"separator"`
	Header    bool     `yaml:"header"`
	Columns   []string `yaml:"columns"`
}

// Fields is the arity every line of the source must have.
func (s Source) Fields() int { return len(s.Columns) }

// Index returns the position of column name.
func (s Source) Index(name string) (int, bool) {
	i := slices.Index(s.Columns, name)
	return i, i >= 0
}

// Layout maps each of names to its field position. Every name must be present.
func (s Source) Layout(names ...string) (map[string]int, error) {
	out := make(map[string]int, len(names))
	for _, n := range names {
		i, ok := s.Index(n)
		if !ok {
			return nil, fmt.Errorf("source %q has no %q column", s.File, n)
		}
		out[n] = i
	}
	return out, nil
}

// Dataset is a resolved profile: the directory holding the sources and the
// layout of each one.
type Dataset struct {
	Name        string `yaml:"name"`
	Dir         string `yaml:"dir"`
	Majors      Source `yaml:"majors"`
	Students    Source `yaml:"students"`
	Instructors Source `yaml:"instructors"`
	Grades      Source `yaml:"grades"`
}

// Path returns the location of src inside the dataset directory.
// Absolute file names are used as is.
func (d Dataset) Path(src Source) string {
	if filepath.IsAbs(src.File) {
		return src.File
	}
	return filepath.Join(d.Dir, src.File)
}

// RequiredColumns lists the columns ingestion reads from each source.
var RequiredColumns = map[string][]string{
	"majors":      {ColMajor, ColType, ColCourse},
	"students":    {ColCWID, ColName, ColMajor},
	"instructors": {ColCWID, ColName, ColDept},
	"grades":      {ColStudentCWID, ColCourse, ColGrade, ColInstructorCWID},
}

// DefaultDataset is the tab separated layout with a header line on every
// source and columns in canonical order.
func DefaultDataset() Dataset {
	src := func(file string, cols ...string) Source {
		return Source{File: file, Separator: "\t", Header: true, Columns: cols}
	}
	return Dataset{
		Name:        "University",
		Dir:         ".",
		Majors:      src("majors.txt", RequiredColumns["majors"]...),
		Students:    src("students.txt", RequiredColumns["students"]...),
		Instructors: src("instructors.txt", RequiredColumns["instructors"]...),
		Grades:      src("grades.txt", RequiredColumns["grades"]...),
	}
}

// LoadDataset resolves the dataset described by cfg. The profile file, when
// named, is laid over the defaults; Dir and Name from the environment win
// over both.
func LoadDataset(cfg DatasetConfig) (Dataset, error) {
	ds := DefaultDataset()

	if cfg.Profile != "" {
		data, err := os.ReadFile(cfg.Profile)
		if err != nil {
			return Dataset{}, fmt.Errorf("read dataset profile: %w", err)
		}
		if err := yaml.Unmarshal(data, &ds); err != nil {
			return Dataset{}, fmt.Errorf("parse dataset profile %s: %w", cfg.Profile, err)
		}
	}

	if cfg.Dir != "" {
		ds.Dir = cfg.Dir
	}
	if cfg.Name != "" {
		ds.Name = cfg.Name
	}

	if err := ds.Validate(); err != nil {
		return Dataset{}, fmt.Errorf("dataset profile: %w", err)
	}
	return ds, nil
}

// Validate checks every source and reports all failures at once.
func (d Dataset) Validate() error {
	var errs []string

	if d.Dir == "" {
		errs = append(errs, "dir must not be empty")
	}

	sources := []struct {
		key string
		src Source
	}{
		{"majors", d.Majors},
		{"students", d.Students},
		{"instructors", d.Instructors},
		{"grades", d.Grades},
	}
	for _, s := range sources {
		if s.src.File == "" {
			errs = append(errs, fmt.Sprintf("%s: file must not be empty", s.key))
		}
		if s.src.Separator == "" {
			errs = append(errs, fmt.Sprintf("%s: separator must not be empty", s.key))
		}
		seen := make(map[string]bool, len(s.src.Columns))
		for _, c := range s.src.Columns {
			if c != "" && seen[c] {
				errs = append(errs, fmt.Sprintf("%s: column %q listed twice", s.key, c))
			}
			seen[c] = true
		}
		for _, c := range RequiredColumns[s.key] {
			if !seen[c] {
				errs = append(errs, fmt.Sprintf("%s: missing column %q", s.key, c))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

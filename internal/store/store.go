// Package store is the relational reporting store. A Ready university is
// published into PostgreSQL so other tools can query it, and the completed
// courses report is read back with a three-way join.
//
// The schema is managed outside this package:
//
//	CREATE TABLE majors      (major text, course text, type char(1));
//	CREATE TABLE students    (cwid text PRIMARY KEY, name text, major text);
//	CREATE TABLE instructors (cwid text PRIMARY KEY, name text, dept text);
//	CREATE TABLE grades      (student_cwid text, course text, grade text, instructor_cwid text);
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/gradebook/internal/catalog"
	"github.com/JonMunkholm/gradebook/internal/roster"
	"github.com/JonMunkholm/gradebook/internal/university"
)

// GradeRow is one line of the completed courses report.
type GradeRow struct {
	Name       string `json:"name"`
	CWID       string `json:"cwid"`
	Course     string `json:"course"`
	Grade      string `json:"grade"`
	Instructor string `json:"instructor"`
}

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PublishSource is what Publish copies out of a loaded university.
type PublishSource interface {
	LoadID() uuid.UUID
	MajorSummaries() []catalog.MajorSummary
	Students() []*roster.Student
	Instructors() []*roster.Instructor
	Enrollments() []university.Enrollment
}

// Postgres reads and writes the reporting tables.
type Postgres struct {
	db DB
	sb squirrel.StatementBuilderType
}

// NewPostgres returns a store backed by db.
func NewPostgres(db DB) *Postgres {
	return &Postgres{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (p *Postgres) completedQuery(cwid string) squirrel.SelectBuilder {
	q := p.sb.Select("s.name", "s.cwid", "g.course", "g.grade", "i.name").
		From("students AS s").
		Join("grades AS g ON s.cwid = g.student_cwid").
		Join("instructors AS i ON g.instructor_cwid = i.cwid").
		OrderBy("s.name", "s.cwid", "g.course")
	if cwid != "" {
		q = q.Where(squirrel.Eq{"s.cwid": cwid})
	}
	return q
}

// CompletedGrades returns every graded course, ordered by student name.
func (p *Postgres) CompletedGrades(ctx context.Context) ([]GradeRow, error) {
	return p.queryGrades(ctx, "")
}

// StudentGrades returns the graded courses of one student.
func (p *Postgres) StudentGrades(ctx context.Context, cwid string) ([]GradeRow, error) {
	return p.queryGrades(ctx, cwid)
}

func (p *Postgres) queryGrades(ctx context.Context, cwid string) ([]GradeRow, error) {
	sql, args, err := p.completedQuery(cwid).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build completed grades query: %w", err)
	}

	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query completed grades: %w", err)
	}
	defer rows.Close()

	out := []GradeRow{}
	for rows.Next() {
		var r GradeRow
		if err := rows.Scan(&r.Name, &r.CWID, &r.Course, &r.Grade, &r.Instructor); err != nil {
			return nil, fmt.Errorf("scan completed grade: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed grades: %w", err)
	}
	return out, nil
}

// PublishResult counts the rows copied into each table.
type PublishResult struct {
	Majors      int64
	Students    int64
	Instructors int64
	Grades      int64
}

// Publish replaces the reporting tables with the contents of src in one
// transaction. Readers see either the previous load or this one.
func (p *Postgres) Publish(ctx context.Context, src PublishSource) (PublishResult, error) {
	var res PublishResult
	start := time.Now()

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin publish: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE grades, students, instructors, majors"); err != nil {
		return res, fmt.Errorf("truncate reporting tables: %w", err)
	}

	copies := []struct {
		table   string
		columns []string
		rows    [][]any
		count   *int64
	}{
		{"majors", []string{"major", "course", "type"}, MajorRows(src.MajorSummaries()), &res.Majors},
		{"students", []string{"cwid", "name", "major"}, StudentRows(src.Students()), &res.Students},
		{"instructors", []string{"cwid", "name", "dept"}, InstructorRows(src.Instructors()), &res.Instructors},
		{"grades", []string{"student_cwid", "course", "grade", "instructor_cwid"}, GradeRows(src.Enrollments()), &res.Grades},
	}

	for _, c := range copies {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{c.table}, c.columns, pgx.CopyFromRows(c.rows))
		if err != nil {
			return res, fmt.Errorf("copy %s: %w", c.table, err)
		}
		*c.count = n
	}

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("commit publish: %w", err)
	}

	slog.Info("reporting store published",
		"load_id", src.LoadID().String(),
		"majors", res.Majors,
		"students", res.Students,
		"instructors", res.Instructors,
		"grades", res.Grades,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

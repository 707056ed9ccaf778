// Command repository loads a university dataset and prints its report tables.
//
// Usage:
//
//	repository [-dir path] [-profile file.yaml] [-name label] [-db] [-publish]
//
// Flags win over DATASET_DIR, DATASET_PROFILE and DATASET_NAME. With -db the
// student grade summary is read back from the reporting database instead of
// being joined in memory; -publish also replaces the database contents first.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/gradebook/internal/config"
	"github.com/JonMunkholm/gradebook/internal/logging"
	"github.com/JonMunkholm/gradebook/internal/report"
	"github.com/JonMunkholm/gradebook/internal/store"
	"github.com/JonMunkholm/gradebook/internal/university"
)

func main() {
	os.Exit(exitCode(run(os.Args[1:], os.Stdout), os.Stderr))
}

// exitCode reports err on stderr and picks the process status. Asking for
// help is a success; the flag set has already printed usage.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	default:
		fmt.Fprintf(stderr, "repository: %v\n%s\n", err, university.FormatUserError(err))
		return 1
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("repository", flag.ContinueOnError)
	dir := fs.String("dir", "", "dataset directory (overrides DATASET_DIR)")
	profile := fs.String("profile", "", "dataset profile YAML (overrides DATASET_PROFILE)")
	name := fs.String("name", "", "university name (overrides DATASET_NAME)")
	useDB := fs.Bool("db", false, "read the grade summary from DATABASE_URL")
	publish := fs.Bool("publish", false, "publish the load to DATABASE_URL before reading it back")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Tables go to stdout; logs stay on stderr.
	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))

	if *dir != "" {
		cfg.Dataset.Dir = *dir
	}
	if *profile != "" {
		cfg.Dataset.Profile = *profile
	}
	if *name != "" {
		cfg.Dataset.Name = *name
	}

	ds, err := config.LoadDataset(cfg.Dataset)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uni, err := university.Build(ctx, ds)
	if err != nil {
		return err
	}

	var grades interface {
		CompletedGrades(ctx context.Context) ([]store.GradeRow, error)
	} = store.NewSnapshot(uni)

	if *useDB || *publish {
		if !cfg.Database.Enabled() {
			return fmt.Errorf("-db and -publish need DATABASE_URL")
		}
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		pg := store.NewPostgres(pool)
		if *publish {
			if _, err := pg.Publish(ctx, uni); err != nil {
				return err
			}
		}
		grades = pg
	}

	rows, err := grades.CompletedGrades(ctx)
	if err != nil {
		return err
	}
	students, err := uni.StudentSummaries()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n\n", uni.Name())
	for _, section := range []func() error{
		func() error { return report.Majors(out, uni.MajorSummaries()) },
		func() error { return report.Students(out, students) },
		func() error { return report.Instructors(out, uni.InstructorSummaries()) },
		func() error { return report.Grades(out, rows) },
		func() error { return report.Diagnostics(out, uni.Diagnostics()) },
	} {
		if err := section(); err != nil {
			return err
		}
	}
	return nil
}

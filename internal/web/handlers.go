package web

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/gradebook/internal/catalog"
	"github.com/JonMunkholm/gradebook/internal/logging"
	"github.com/JonMunkholm/gradebook/internal/roster"
	"github.com/JonMunkholm/gradebook/internal/university"
	"github.com/JonMunkholm/gradebook/internal/web/views"
)

// RemainingResponse is the JSON body of /api/students/{cwid}/remaining.
type RemainingResponse struct {
	CWID      string   `json:"cwid"`
	Major     string   `json:"major"`
	Completed []string `json:"completed"`
	Required  []string `json:"remaining_required"`
	Electives []string `json:"remaining_electives"`
	Passing   []string `json:"passing_grades"`
}

// HealthResponse is the JSON body of /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	LoadID      string `json:"load_id"`
	Stage       string `json:"stage"`
	Students    int    `json:"students"`
	Instructors int    `json:"instructors"`
	Diagnostics int    `json:"diagnostics"`
}

// ==================================================================
// Pages
// ==================================================================

func (s *Server) handleSummaryPage(w http.ResponseWriter, r *http.Request) {
	students, err := s.uni.StudentSummaries()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	body := views.Summary(s.uni.MajorSummaries(), students, s.uni.InstructorSummaries(), s.uni.Diagnostics())
	s.render(w, r, views.Layout(s.uni.Name(), body))
}

func (s *Server) handleCompletedPage(w http.ResponseWriter, r *http.Request) {
	rows, err := s.grades.CompletedGrades(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.render(w, r, views.Layout(s.uni.Name(), views.Completed(rows)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, HealthResponse{
		Status:      "ok",
		LoadID:      s.uni.LoadID().String(),
		Stage:       s.uni.Stage().String(),
		Students:    len(s.uni.Students()),
		Instructors: len(s.uni.Instructors()),
		Diagnostics: len(s.uni.Diagnostics()),
	})
}

// ==================================================================
// API
// ==================================================================

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.uni.StudentSummaries()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, students)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := s.lookupStudent(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	summary, err := student.Summary()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, summary)
}

func (s *Server) handleRemaining(w http.ResponseWriter, r *http.Request) {
	cwid := chi.URLParam(r, "cwid")
	rem, err := s.uni.RemainingCourses(cwid)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, r, RemainingResponse{
		CWID:      cwid,
		Major:     rem.Major,
		Completed: rem.Completed.Sorted(),
		Required:  rem.Required.Sorted(),
		Electives: rem.Electives.Sorted(),
		Passing:   catalog.PassingGrades(),
	})
}

func (s *Server) handleStudentGrades(w http.ResponseWriter, r *http.Request) {
	student, err := s.lookupStudent(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	rows, err := s.grades.StudentGrades(r.Context(), student.CWID())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, rows)
}

func (s *Server) handleListInstructors(w http.ResponseWriter, r *http.Request) {
	rows := s.uni.InstructorSummaries()
	if rows == nil {
		rows = []roster.InstructorSummary{}
	}
	writeJSON(w, r, rows)
}

func (s *Server) handleListMajors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.uni.MajorSummaries())
}

func (s *Server) handleGetMajor(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "major")
	major, ok := s.uni.Catalog().Major(name)
	if !ok {
		err := fmt.Errorf("%w: %s", catalog.ErrUnknownMajor, name)
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, major.Summary())
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.uni.Diagnostics())
}

func (s *Server) handleCompleted(w http.ResponseWriter, r *http.Request) {
	rows, err := s.grades.CompletedGrades(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, rows)
}

// ==================================================================
// Helpers
// ==================================================================

func (s *Server) lookupStudent(r *http.Request) (*roster.Student, error) {
	cwid := chi.URLParam(r, "cwid")
	student, ok := s.uni.Student(cwid)
	if !ok {
		return nil, &university.ReferenceError{Entity: "student", Key: cwid}
	}
	return student, nil
}

// render writes an HTML component. Render errors after the first byte can
// only be logged.
func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}

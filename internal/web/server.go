// Package web serves the university reports over HTTP: HTML pages for people
// and a JSON API for tools.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/gradebook/internal/config"
	"github.com/JonMunkholm/gradebook/internal/store"
	"github.com/JonMunkholm/gradebook/internal/university"
	webmw "github.com/JonMunkholm/gradebook/internal/web/middleware"
)

// GradeSource answers the completed courses report. *store.Postgres reads it
// from the reporting database and *store.Snapshot from memory.
type GradeSource interface {
	CompletedGrades(ctx context.Context) ([]store.GradeRow, error)
	StudentGrades(ctx context.Context, cwid string) ([]store.GradeRow, error)
}

// Server is the HTTP server for the report pages and API.
type Server struct {
	uni    *university.University
	grades GradeSource
	cfg    config.ServerConfig
	router *chi.Mux
	server *http.Server
}

// NewServer creates a Server over a Ready university.
func NewServer(uni *university.University, grades GradeSource, cfg config.ServerConfig) *Server {
	s := &Server{
		uni:    uni,
		grades: grades,
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	// Pages
	s.router.Get("/", s.handleSummaryPage)
	s.router.Get("/completed", s.handleCompletedPage)
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/students", s.handleListStudents)
		r.Get("/students/{cwid}", s.handleGetStudent)
		r.Get("/students/{cwid}/remaining", s.handleRemaining)
		r.Get("/students/{cwid}/grades", s.handleStudentGrades)
		r.Get("/instructors", s.handleListInstructors)
		r.Get("/majors", s.handleListMajors)
		r.Get("/majors/{major}", s.handleGetMajor)
		r.Get("/diagnostics", s.handleDiagnostics)
		r.Get("/completed", s.handleCompleted)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, errNotFound, http.StatusNotFound)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("server starting", "addr", s.server.Addr, "load_id", s.uni.LoadID().String())
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "path", r.URL.Path, "error", err)
	}
}

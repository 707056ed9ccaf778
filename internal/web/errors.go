package web

// errors.go turns handler errors into responses. The technical error is
// logged with the request ID; the client gets the mapped user message as JSON
// for /api routes and as an HTML page otherwise.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/gradebook/internal/catalog"
	"github.com/JonMunkholm/gradebook/internal/logging"
	"github.com/JonMunkholm/gradebook/internal/university"
	"github.com/JonMunkholm/gradebook/internal/web/views"
)

var errNotFound = errors.New("not found")

var notFoundMessage = university.UserMessage{
	Message: "Page not found",
	Action:  "Check the address",
	Code:    "HTTP404",
}

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the user-facing message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := university.MapError(err)
	if errors.Is(err, errNotFound) {
		userMsg = notFoundMessage
	}

	logger := logging.WithFields(r.Context(),
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"code", userMsg.Code,
	)
	if statusCode >= 500 {
		logger.Error("request error", "error", err.Error())
	} else {
		logger.Warn("request error", "error", err.Error())
	}

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, statusCode)
		return
	}
	s.respondErrorHTML(w, r, userMsg, statusCode)
}

// statusFor picks the HTTP status for a query error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, university.ErrUnresolvedReference),
		errors.Is(err, catalog.ErrUnknownMajor),
		errors.Is(err, errNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondErrorJSON(w http.ResponseWriter, msg university.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func (s *Server) respondErrorHTML(w http.ResponseWriter, r *http.Request, msg university.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	page := views.Layout(s.uni.Name(), views.Error(msg.Message, msg.Action, msg.Code))
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error page", "error", err)
	}
}

// wantsJSON reports whether the client should get a JSON body.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

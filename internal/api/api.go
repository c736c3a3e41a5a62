// Package api exposes the directory over HTTP/JSON. The routes mirror the
// fixed query/mutation surface one to one; errors serialize as a sanitized
// envelope carrying the coarse error code, never internal detail.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"studentdir/internal/directory"
	"studentdir/internal/logging"
	"studentdir/internal/student"
)

// Server wires the directory service into HTTP handlers.
type Server struct {
	dir          *directory.Service
	log          logging.Logger
	defaultLimit int
	corsOrigins  map[string]bool
}

// NewServer creates a Server. defaultLimit applies when a list request
// omits the limit parameter.
func NewServer(dir *directory.Service, log logging.Logger, defaultLimit int, corsOrigins []string) *Server {
	if dir == nil {
		panic("dir is nil")
	}

	if log == nil {
		panic("log is nil")
	}

	if defaultLimit <= 0 {
		defaultLimit = directory.DefaultLimit
	}

	origins := make(map[string]bool, len(corsOrigins))
	for _, origin := range corsOrigins {
		origins[origin] = true
	}

	return &Server{
		dir:          dir,
		log:          log,
		defaultLimit: defaultLimit,
		corsOrigins:  origins,
	}
}

// Handler returns the routed HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /students", s.handleList)
	mux.HandleFunc("GET /students/count", s.handleCount)
	mux.HandleFunc("GET /students/{id}", s.handleGet)
	mux.HandleFunc("GET /courses", s.handleCourses)
	mux.HandleFunc("POST /students", s.handleAdd)
	mux.HandleFunc("PATCH /students/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /students/{id}", s.handleDelete)
	mux.HandleFunc("POST /students/bulk", s.handleBulkAdd)
	mux.HandleFunc("POST /students/bulk-delete", s.handleBulkDelete)

	return s.cors(mux)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := directory.ListQuery{
		Search: r.URL.Query().Get("search"),
		Course: r.URL.Query().Get("course"),
		Limit:  s.defaultLimit,
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, student.NewValidation([]string{"limit must be an integer"}))

			return
		}

		q.Limit = limit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, student.NewValidation([]string{"offset must be an integer"}))

			return
		}

		q.Offset = offset
	}

	students, err := s.dir.List(q)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, students)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.dir.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCount(w http.ResponseWriter, _ *http.Request) {
	count, err := s.dir.Count()
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleCourses(w http.ResponseWriter, _ *http.Request) {
	courses, err := s.dir.Courses()
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, courses)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var in directory.NewStudent

	if !s.decode(w, r, &in) {
		return
	}

	created, err := s.dir.Add(in)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch directory.Patch

	if !s.decode(w, r, &patch) {
		return
	}

	updated, err := s.dir.Update(r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.dir.Delete(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type bulkAddRequest struct {
	Students []directory.NewStudent `json:"students"`
}

func (s *Server) handleBulkAdd(w http.ResponseWriter, r *http.Request) {
	var req bulkAddRequest

	if !s.decode(w, r, &req) {
		return
	}

	added, err := s.dir.BulkAdd(req.Students)
	if err != nil {
		// Prior items stay committed; surface the failing item plus what
		// landed so the caller can reconcile.
		s.writeBulkError(w, err, added)

		return
	}

	s.writeJSON(w, http.StatusCreated, added)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest

	if !s.decode(w, r, &req) {
		return
	}

	err := s.dir.BulkDelete(req.IDs)
	if err != nil {
		s.writeBulkError(w, err, nil)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// cors applies the allow-list CORS policy and answers preflight requests.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" && s.corsOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)

			return
		}

		next.ServeHTTP(w, r)
	})
}

// errorBody is the sanitized error envelope.
type errorBody struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`

	// Committed is set on partial bulk failures: the number of items
	// persisted before the failing one.
	Committed *int `json:"committed,omitempty"`

	// Students holds the committed records of a partial bulk add.
	Students []student.Student `json:"students,omitempty"`
}

// decode parses the JSON request body into dest, answering a validation
// error on malformed input. Returns false when the request was already
// answered.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dest)
	if err != nil {
		s.writeError(w, student.NewValidation([]string{"request body is not valid JSON"}))

		return false
	}

	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	classified := student.Classify(err)

	s.writeJSON(w, statusFor(classified.Kind), errorResponse{
		Error: errorBody{
			Code:       string(classified.Kind),
			Message:    classified.Msg,
			Violations: classified.Violations,
		},
	})
}

// writeBulkError answers a failed bulk operation with the failing item's
// error and the partial-completion detail.
func (s *Server) writeBulkError(w http.ResponseWriter, err error, committed []student.Student) {
	var bulkErr *directory.BulkError

	if !errors.As(err, &bulkErr) {
		s.writeError(w, err)

		return
	}

	classified := student.Classify(bulkErr.Err)
	committedCount := bulkErr.Committed

	s.writeJSON(w, statusFor(classified.Kind), errorResponse{
		Error: errorBody{
			Code:       string(classified.Kind),
			Message:    fmt.Sprintf("item %d: %s", bulkErr.Index, classified.Msg),
			Violations: classified.Violations,
		},
		Committed: &committedCount,
		Students:  committed,
	})
}

func statusFor(kind student.Kind) int {
	switch kind {
	case student.KindValidation:
		return http.StatusBadRequest
	case student.KindNotFound:
		return http.StatusNotFound
	case student.KindStorage, student.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encodeErr := json.NewEncoder(w).Encode(v)
	if encodeErr != nil {
		s.log.Error("encode response failed", "error", encodeErr)
	}
}

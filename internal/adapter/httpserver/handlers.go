package httpserver

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/fairyhunter13/ai-interview-tutor/internal/config"
	"github.com/fairyhunter13/ai-interview-tutor/internal/usecase"
)

// ReadyCheck checks one dependency.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server aggregates handler dependencies.
type Server struct {
	Cfg         config.Config
	Interview   usecase.InterviewService
	Quiz        usecase.QuizService
	Tutor       usecase.TutorService
	Speech      usecase.SpeechService
	ReadyChecks []ReadyCheck
	// OpenAPIPath is served at /openapi.yaml when the file exists.
	OpenAPIPath string
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, iv usecase.InterviewService, qz usecase.QuizService, tu usecase.TutorService, sp usecase.SpeechService, checks ...ReadyCheck) *Server {
	return &Server{Cfg: cfg, Interview: iv, Quiz: qz, Tutor: tu, Speech: sp, ReadyChecks: checks, OpenAPIPath: "api/openapi.yaml"}
}

// ReadyzHandler runs every readiness check and returns 503 when any fails.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, len(s.ReadyChecks))
		ok := true
		for _, rc := range s.ReadyChecks {
			c := check{Name: rc.Name, OK: true}
			if err := rc.Check(ctx); err != nil {
				c.OK, c.Details, ok = false, err.Error(), false
			}
			checks = append(checks, c)
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}

// OpenAPIServe serves the API description if present.
func (s *Server) OpenAPIServe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(s.OpenAPIPath)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type startInterviewRequest struct {
	Persona string `json:"persona" validate:"required_without=PersonaPath,max=256"`
	// PersonaPath is the field name older clients send.
	PersonaPath string `json:"persona_path" validate:"max=256"`
	Difficulty  string `json:"difficulty" validate:"max=64"`
}

type respondRequest struct {
	UserText string `json:"user_text" validate:"max=20000"`
}

type endInterviewRequest struct {
	Criteria     string `json:"criteria" validate:"required_without=CriteriaPath,max=256"`
	CriteriaPath string `json:"criteria_path" validate:"max=256"`
}

// StartInterviewHandler handles POST /v1/interview/start.
func (s *Server) StartInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startInterviewRequest
		if details, err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, details)
			return
		}
		persona := req.Persona
		if persona == "" {
			persona = req.PersonaPath
		}
		res, err := s.Interview.Start(r.Context(), persona, req.Difficulty)
		if err != nil {
			writeError(w, r, err, map[string]string{"persona": persona})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// RespondHandler handles POST /v1/interview/{id}/respond.
func (s *Server) RespondHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req respondRequest
		if details, err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, details)
			return
		}
		res, err := s.Interview.Respond(r.Context(), chi.URLParam(r, "id"), req.UserText)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// HistoryHandler handles GET /v1/interview/{id}/history.
func (s *Server) HistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.Interview.History(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// EndInterviewHandler handles POST /v1/interview/{id}/end.
func (s *Server) EndInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req endInterviewRequest
		if details, err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, details)
			return
		}
		criteria := req.Criteria
		if criteria == "" {
			criteria = req.CriteriaPath
		}
		summary, err := s.Interview.End(r.Context(), chi.URLParam(r, "id"), criteria)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
	}
}

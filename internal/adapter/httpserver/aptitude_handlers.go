package httpserver

import (
	"net/http"
)

type submitAnswerRequest struct {
	QuestionID          *int `json:"question_id" validate:"required"`
	SelectedOptionIndex *int `json:"selected_option_index" validate:"required,min=0,max=3"`
}

type topicRequest struct {
	Topic string `json:"topic" validate:"max=500"`
}

type chatRequest struct {
	Message string `json:"message" validate:"max=8000"`
}

// RandomQuestionHandler handles GET /v1/aptitude/questions/random.
func (s *Server) RandomQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := s.Quiz.RandomQuestion(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// SubmitAnswerHandler handles POST /v1/aptitude/questions/submit_answer.
func (s *Server) SubmitAnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		var req submitAnswerRequest
		if details, err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, details)
			return
		}
		sub, err := s.Quiz.SubmitAnswer(r.Context(), userID, *req.QuestionID, *req.SelectedOptionIndex)
		if err != nil {
			writeError(w, r, err, map[string]int{"question_id": *req.QuestionID})
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// ProgressHandler handles GET /v1/aptitude/progress.
func (s *Server) ProgressHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		p, err := s.Quiz.Progress(r.Context(), userID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// ExplainConceptHandler handles POST /v1/aptitude/explain_concept.
func (s *Server) ExplainConceptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		var req topicRequest
		if details, err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, details)
			return
		}
		out, err := s.Tutor.ExplainConcept(r.Context(), userID, req.Topic)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"explanation": out})
	}
}

// ChatHistoryHandler handles GET /v1/aptitude/chat_history.
func (s *Server) ChatHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		turns, err := s.Tutor.ChatHistory(r.Context(), userID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, turns)
	}
}

// ChatHandler handles POST /v1/aptitude/chat.
func (s *Server) ChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		var req chatRequest
		if details, err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, details)
			return
		}
		out, err := s.Tutor.Chat(r.Context(), userID, req.Message)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"response": out})
	}
}

// Package httpserver contains the REST handlers and middleware of the
// interview and aptitude tutor API.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-tutor/internal/observability"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps the domain taxonomy onto an HTTP status and a stable code.
// Order matters: persona/criteria errors wrap ErrPromptFileMissing.
func errorStatus(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.Is(err, domain.ErrSessionAlreadyFinished):
		return http.StatusConflict, "SESSION_FINISHED"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound, "QUESTION_NOT_FOUND"
	case errors.Is(err, domain.ErrCatalogEmpty):
		return http.StatusNotFound, "CATALOG_EMPTY"
	case errors.Is(err, domain.ErrPromptFileMissing):
		return http.StatusNotFound, "PROMPT_NOT_FOUND"
	case errors.Is(err, domain.ErrSummarizationFailed):
		return http.StatusBadGateway, "SUMMARIZATION_FAILED"
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "MODEL_UNAVAILABLE"
	case errors.Is(err, domain.ErrQueueFull), errors.Is(err, domain.ErrQueueClosed):
		return http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error, details interface{}) {
	code, codeStr := errorStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		// do not leak internals
		msg = "internal error"
	}
	if r != nil {
		lg := obsctx.LoggerFromContext(r.Context())
		if code >= 500 {
			lg.Error("request failed", "code", codeStr, "error", err)
		} else {
			lg.Debug("request rejected", "code", codeStr, "error", err)
		}
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: msg, Details: details}})
}

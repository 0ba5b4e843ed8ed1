package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

type ttsRequest struct {
	Text  string `json:"text" validate:"required,max=4096"`
	Voice string `json:"voice" validate:"max=64"`
}

// allowedAudio accepts the containers Whisper understands. Browser recordings
// are webm and are detected as video/webm.
func allowedAudio(m *mimetype.MIME) bool {
	for mt := m; mt != nil; mt = mt.Parent() {
		s := mt.String()
		if strings.HasPrefix(s, "audio/") || s == "video/webm" || s == "video/mp4" || s == "application/ogg" {
			return true
		}
	}
	return false
}

// TTSHandler handles POST /v1/speech/tts and returns the encoded audio.
func (s *Server) TTSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ttsRequest
		if details, err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, details)
			return
		}
		audio, err := s.Speech.Synthesize(r.Context(), req.Text, req.Voice)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("Content-Type", mimetype.Detect(audio).String())
		w.Header().Set("Content-Length", fmt.Sprint(len(audio)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(audio)
	}
}

// SayHandler handles POST /v1/speech/say by queueing background playback.
func (s *Server) SayHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ttsRequest
		if details, err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, details)
			return
		}
		id, err := s.Speech.Say(r.Context(), req.Text, req.Voice)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"queued": true, "job_id": id})
	}
}

// TranscribeHandler handles POST /v1/speech/transcribe (multipart field audio_file).
func (s *Server) TranscribeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxAudioMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024*1024)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{Code: "PAYLOAD_TOO_LARGE", Message: "payload too large", Details: map[string]any{"max_mb": s.Cfg.MaxAudioMB}}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()
		f, hdr, err := r.FormFile("audio_file")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: audio_file required", domain.ErrInvalidArgument), map[string]string{"field": "audio_file"})
			return
		}
		defer func() { _ = f.Close() }()
		if hdr.Size > maxBytes {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{Code: "PAYLOAD_TOO_LARGE", Message: "payload too large", Details: map[string]any{"max_mb": s.Cfg.MaxAudioMB}}})
			return
		}
		data, err := io.ReadAll(f)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: audio read: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		mt := mimetype.Detect(data)
		if !allowedAudio(mt) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "uploaded file must be audio", Details: map[string]string{"detected": mt.String()}}})
			return
		}
		text, err := s.Speech.Transcribe(r.Context(), hdr.Filename, data)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"transcription": text})
	}
}

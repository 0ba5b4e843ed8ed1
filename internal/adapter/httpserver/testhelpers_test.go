package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/ai/stub"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/prompts"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/repo/memory"
	"github.com/fairyhunter13/ai-interview-tutor/internal/config"
	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
	"github.com/fairyhunter13/ai-interview-tutor/internal/interview"
	"github.com/fairyhunter13/ai-interview-tutor/internal/quiz"
	"github.com/fairyhunter13/ai-interview-tutor/internal/speech"
	"github.com/fairyhunter13/ai-interview-tutor/internal/usecase"
)

// failingModel stands in for an unreachable vendor.
type failingModel struct{}

func (failingModel) Complete(context.Context, domain.Transcript) (domain.Turn, error) {
	return domain.Turn{}, domain.ErrModelUnavailable
}

func (failingModel) Generate(context.Context, domain.GenerateRequest) (string, error) {
	return "", domain.ErrModelUnavailable
}

type nopSink struct{}

func (nopSink) Play(context.Context, []byte) error { return nil }

type backend interface {
	domain.LanguageModelClient
	domain.TextGenerator
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	queue   *speech.Queue
}

func newTestEnv(t *testing.T, model backend) *testEnv {
	t.Helper()
	cfg := config.Config{MaxAudioMB: 1, TutorHistorySize: 20, SpeechQueueSize: 1}

	lib := prompts.NewStoreFS(
		fstest.MapFS{"ethan.txt": {Data: []byte("You are Ethan, a staff engineer.")}},
		fstest.MapFS{"meta-sweml-response-guidelines.txt": {Data: []byte("Rate clarity and depth.")}},
	)
	catalog, err := quiz.NewCatalog([]domain.QuizQuestion{
		{ID: 1, Question: "2+2?", Options: []string{"3", "4", "5", "6"}, CorrectOptionIndex: 1, Explanation: "sum"},
	})
	require.NoError(t, err)

	sp := stub.New()
	q := speech.NewQueue(cfg.SpeechQueueSize, sp, nopSink{}, time.Second)

	iv := usecase.NewInterviewService(
		interview.NewRegistry(model),
		interview.NewCompletionDetector(model, 5, 0.1),
		interview.NewSummarizer(model, 1024),
		lib,
		nil,
	)
	qz := usecase.NewQuizService(catalog, memory.NewProgressStore())
	tu := usecase.NewTutorService(model, model, memory.NewHistoryStore(), cfg.TutorHistorySize, 512)
	spc := usecase.NewSpeechService(sp, sp, q)

	srv := NewServer(cfg, iv, qz, tu, spc)
	r := chi.NewRouter()
	r.Use(RequestID())
	r.Use(Recoverer())
	srv.Mount(r)
	r.Get("/readyz", srv.ReadyzHandler())
	r.Get("/openapi.yaml", srv.OpenAPIServe())
	return &testEnv{srv: srv, handler: r, queue: q}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorEnvelope](t, rec).Error.Code
}

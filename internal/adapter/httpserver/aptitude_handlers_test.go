package httpserver

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/ai/stub"
	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
	"github.com/fairyhunter13/ai-interview-tutor/internal/quiz"
)

func TestRandomQuestion_HidesAnswer(t *testing.T) {
	env := newTestEnv(t, stub.New())
	rec := env.do(t, http.MethodGet, "/v1/aptitude/questions/random", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "correct_option_index")
	q := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, q["id"])
	assert.Len(t, q["options"], 4)
}

func TestRandomQuestion_EmptyCatalog(t *testing.T) {
	env := newTestEnv(t, stub.New())
	empty, err := quiz.NewCatalog(nil)
	require.NoError(t, err)
	env.srv.Quiz.Catalog = empty
	rec := env.do(t, http.MethodGet, "/v1/aptitude/questions/random", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "CATALOG_EMPTY", errorCode(t, rec))
}

func TestSubmitAnswerAndProgress(t *testing.T) {
	env := newTestEnv(t, stub.New())
	path := "/v1/aptitude/questions/submit_answer?user_id=alice"

	rec := env.do(t, http.MethodPost, path, map[string]int{"question_id": 1, "selected_option_index": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	sub := decode[domain.Submission](t, rec)
	assert.False(t, sub.IsCorrect)
	assert.Equal(t, 1, sub.CorrectOptionIndex)

	rec = env.do(t, http.MethodPost, path, map[string]int{"question_id": 1, "selected_option_index": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[domain.Submission](t, rec).IsCorrect)

	rec = env.do(t, http.MethodGet, "/v1/aptitude/progress?user_id=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, quiz.Progress{Correct: 1, Total: 1, Accuracy: 100}, decode[quiz.Progress](t, rec))

	rec = env.do(t, http.MethodGet, "/v1/aptitude/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, quiz.Progress{}, decode[quiz.Progress](t, rec))
}

func TestSubmitAnswer_Errors(t *testing.T) {
	env := newTestEnv(t, stub.New())
	path := "/v1/aptitude/questions/submit_answer"

	rec := env.do(t, http.MethodPost, path, map[string]int{"question_id": 42, "selected_option_index": 0})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "QUESTION_NOT_FOUND", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, path, map[string]int{"question_id": 1, "selected_option_index": 4})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, path, map[string]int{"question_id": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, path+"?user_id="+strings.Repeat("x", 200), map[string]int{"question_id": 1, "selected_option_index": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTutorEndpoints(t *testing.T) {
	env := newTestEnv(t, stub.New())

	rec := env.do(t, http.MethodPost, "/v1/aptitude/explain_concept?user_id=bob", map[string]string{"topic": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/aptitude/explain_concept?user_id=bob", map[string]string{"topic": "percentages"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["explanation"])

	rec = env.do(t, http.MethodPost, "/v1/aptitude/chat?user_id=bob", map[string]string{"message": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/aptitude/chat?user_id=bob", map[string]string{"message": "what is a ratio?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["response"])

	rec = env.do(t, http.MethodGet, "/v1/aptitude/chat_history?user_id=bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decode[[]domain.Turn](t, rec)
	require.Len(t, hist, 4)
	assert.Equal(t, "Explain: percentages", hist[0].Content)
	assert.Equal(t, "what is a ratio?", hist[2].Content)

	rec = env.do(t, http.MethodGet, "/v1/aptitude/chat_history?user_id=nobody", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestTutor_ModelUnavailable(t *testing.T) {
	env := newTestEnv(t, failingModel{})
	rec := env.do(t, http.MethodPost, "/v1/aptitude/chat", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = env.do(t, http.MethodPost, "/v1/aptitude/explain_concept", map[string]string{"topic": "ratios"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

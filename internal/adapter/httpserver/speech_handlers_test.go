package httpserver

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/ai/stub"
)

func wavBytes(n int) []byte {
	b := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00"), make([]byte, n)...)
	return b
}

func multipartReq(t *testing.T, field, name string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/v1/speech/transcribe", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestTTS(t *testing.T) {
	env := newTestEnv(t, stub.New())
	rec := env.do(t, http.MethodPost, "/v1/speech/tts", map[string]string{"text": "hello there", "voice": "alloy"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello there", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))

	rec = env.do(t, http.MethodPost, "/v1/speech/tts", map[string]string{"voice": "alloy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSay_QueueFull(t *testing.T) {
	env := newTestEnv(t, stub.New())
	rec := env.do(t, http.MethodPost, "/v1/speech/say", map[string]string{"text": "one"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["queued"])
	assert.NotEmpty(t, body["job_id"])

	rec = env.do(t, http.MethodPost, "/v1/speech/say", map[string]string{"text": "two"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "QUEUE_UNAVAILABLE", errorCode(t, rec))
}

func TestTranscribe(t *testing.T) {
	env := newTestEnv(t, stub.New())

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, multipartReq(t, "audio_file", "answer.wav", wavBytes(64)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decode[map[string]string](t, rec)["transcription"], "stub transcript")

	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, multipartReq(t, "audio_file", "notes.txt", []byte("just some text")))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, multipartReq(t, "other", "a.wav", wavBytes(8)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, multipartReq(t, "audio_file", "big.wav", wavBytes(3<<20)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/speech/transcribe", map[string]string{"a": "b"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

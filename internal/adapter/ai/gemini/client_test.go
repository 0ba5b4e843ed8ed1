package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{
		APIKey:      "k",
		BaseURL:     srv.URL + "/v1beta/",
		Model:       "gemini-1.5-flash",
		Temperature: 1,
		MaxTokens:   128,
		HTTPClient:  srv.Client(),
	})
}

func TestBuildRequest_MapsRoles(t *testing.T) {
	req := buildRequest(domain.Transcript{
		{Role: domain.RoleSystem, Content: "persona"},
		{Role: domain.RoleUser, Content: "start"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}, 0.5, 0, 64)

	require.NotNil(t, req.SystemInstruction)
	assert.Equal(t, "persona", req.SystemInstruction.Parts[0].Text)
	require.Len(t, req.Contents, 2)
	assert.Equal(t, "user", req.Contents[0].Role)
	assert.Equal(t, "model", req.Contents[1].Role)
	require.NotNil(t, req.GenerationConfig.Temperature)
	assert.Nil(t, req.GenerationConfig.TopP)
	assert.Equal(t, 64, req.GenerationConfig.MaxOutputTokens)
}

func TestComplete_ConcatenatesSSE(t *testing.T) {
	var body generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1beta/models/gemini-1.5-flash:streamGenerateContent", r.URL.Path)
		require.Equal(t, "sse", r.URL.Query().Get("alt"))
		require.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "text/event-stream")
		for _, s := range []string{"Hi, ", "I'm your ", "interviewer."} {
			_, _ = io.WriteString(w, `data: {"candidates":[{"content":{"role":"model","parts":[{"text":"`+s+`"}]}}]}`+"\r\n\r\n")
		}
	})

	turn, err := c.Complete(context.Background(), domain.Transcript{
		{Role: domain.RoleSystem, Content: "persona"},
		{Role: domain.RoleUser, Content: "start"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi, I'm your interviewer.", turn.Content)
	assert.Equal(t, domain.RoleAssistant, turn.Role)
	require.Len(t, body.Contents, 1)
}

func TestComplete_ErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"message":"overloaded"}}`)
	})
	_, err := c.Complete(context.Background(), domain.Transcript{{Role: domain.RoleUser, Content: "x"}})
	require.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestComplete_BadChunk(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "data: {not json}\n\n")
	})
	_, err := c.Complete(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestGenerate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		var body generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 5, body.GenerationConfig.MaxOutputTokens)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"no"}]}}]}`)
	})
	out, err := c.Generate(context.Background(), domain.GenerateRequest{System: "s", Prompt: "p", MaxTokens: 5, Temperature: 0.1})
	require.NoError(t, err)
	assert.Equal(t, "no", out)
}

func TestGenerate_NoCandidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	})
	_, err := c.Generate(context.Background(), domain.GenerateRequest{Prompt: "p"})
	require.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestMissingKey(t *testing.T) {
	c := New(Options{Model: "m"})
	_, err := c.Generate(context.Background(), domain.GenerateRequest{Prompt: "p"})
	require.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

// Package gemini implements the model ports on Google's Generative Language
// REST API.
package gemini

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
	"github.com/fairyhunter13/ai-interview-tutor/internal/observability"
)

// Options configures a Client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	TopP        float32
	MaxTokens   int
	HTTPClient  *http.Client
}

// Client implements domain.LanguageModelClient and domain.TextGenerator.
type Client struct {
	opts Options
	hc   *http.Client
}

// New builds a client with an otelhttp-traced transport.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	hc := opts.HTTPClient
	if hc == nil {
		transport := otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "gemini " + r.Method
			}),
		)
		hc = &http.Client{Transport: transport, Timeout: 5 * time.Minute}
	}
	return &Client{opts: opts, hc: hc}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	TopP            *float32 `json:"topP,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// buildRequest folds system turns into the system instruction and maps the
// assistant role to Gemini's "model".
func buildRequest(t domain.Transcript, temp, topP float32, maxTokens int) generateRequest {
	req := generateRequest{GenerationConfig: generationConfig{MaxOutputTokens: maxTokens}}
	if temp > 0 {
		req.GenerationConfig.Temperature = &temp
	}
	if topP > 0 {
		req.GenerationConfig.TopP = &topP
	}
	var system []string
	for _, turn := range t {
		switch turn.Role {
		case domain.RoleSystem:
			system = append(system, turn.Content)
		case domain.RoleAssistant:
			req.Contents = append(req.Contents, content{Role: "model", Parts: []part{{Text: turn.Content}}})
		default:
			req.Contents = append(req.Contents, content{Role: "user", Parts: []part{{Text: turn.Content}}})
		}
	}
	if len(system) > 0 {
		req.SystemInstruction = &content{Parts: []part{{Text: strings.Join(system, "\n\n")}}}
	}
	return req
}

func (c *Client) post(ctx domain.Context, method string, query url.Values, body generateRequest) (*http.Response, error) {
	if c.opts.APIKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY missing", domain.ErrModelUnavailable)
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/models/%s:%s", c.opts.BaseURL, url.PathEscape(c.opts.Model), method)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.opts.APIKey)
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("op=gemini.%s: %w: %v", op, domain.ErrModelUnavailable, err)
}

// Complete streams the reply over server-sent events and joins the text
// fragments in arrival order.
func (c *Client) Complete(ctx domain.Context, t domain.Transcript) (domain.Turn, error) {
	body := buildRequest(t, c.opts.Temperature, c.opts.TopP, c.opts.MaxTokens)
	resp, err := c.post(ctx, "streamGenerateContent", url.Values{"alt": {"sse"}}, body)
	if err != nil {
		return domain.Turn{}, unavailable("complete", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var sb strings.Builder
	chunks := 0
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		var chunk generateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return domain.Turn{}, unavailable("complete", fmt.Errorf("decode chunk: %w", err))
		}
		chunks++
		sb.WriteString(chunk.text())
	}
	if err := scanner.Err(); err != nil {
		return domain.Turn{}, unavailable("complete", err)
	}
	observability.LoggerFromContext(ctx).Debug("gemini stream completed",
		slog.String("model", c.opts.Model), slog.Int("chunks_received", chunks))
	return domain.Turn{Role: domain.RoleAssistant, Content: sb.String()}, nil
}

// Generate runs one non-streaming generateContent call.
func (c *Client) Generate(ctx domain.Context, r domain.GenerateRequest) (string, error) {
	t := domain.Transcript{}
	if r.System != "" {
		t = append(t, domain.Turn{Role: domain.RoleSystem, Content: r.System})
	}
	t = append(t, domain.Turn{Role: domain.RoleUser, Content: r.Prompt})
	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.opts.MaxTokens
	}
	resp, err := c.post(ctx, "generateContent", nil, buildRequest(t, r.Temperature, 0, maxTokens))
	if err != nil {
		return "", unavailable("generate", err)
	}
	defer func() { _ = resp.Body.Close() }()
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", unavailable("generate", fmt.Errorf("decode: %w", err))
	}
	if len(out.Candidates) == 0 {
		return "", unavailable("generate", fmt.Errorf("no candidates"))
	}
	return out.text(), nil
}

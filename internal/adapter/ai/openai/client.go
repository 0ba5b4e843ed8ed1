// Package openai talks to OpenAI and OpenAI-compatible endpoints (NVIDIA NIM,
// local gateways) for chat, one-shot prompts, speech synthesis and
// transcription.
package openai

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
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
	TTSModel    string
	TTSVoice    string
	STTModel    string
	// HTTPClient overrides the traced default transport.
	HTTPClient *http.Client
}

// Client implements domain.LanguageModelClient, domain.TextGenerator,
// domain.SpeechSynthesizer and domain.Transcriber.
type Client struct {
	api  *goopenai.Client
	opts Options
}

// New builds a client. The API key is checked on each call so a missing key
// surfaces as an unavailable model instead of a startup crash.
func New(opts Options) *Client {
	cfg := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	hc := opts.HTTPClient
	if hc == nil {
		transport := otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "openai " + r.Method + " " + r.URL.Path
			}),
		)
		hc = &http.Client{Transport: transport}
	}
	cfg.HTTPClient = hc
	if opts.TTSModel == "" {
		opts.TTSModel = string(goopenai.TTSModel1)
	}
	if opts.TTSVoice == "" {
		opts.TTSVoice = string(goopenai.VoiceAlloy)
	}
	if opts.STTModel == "" {
		opts.STTModel = goopenai.Whisper1
	}
	return &Client{api: goopenai.NewClientWithConfig(cfg), opts: opts}
}

func (c *Client) unavailable(op string, err error) error {
	return fmt.Errorf("op=openai.%s: %w: %v", op, domain.ErrModelUnavailable, err)
}

func (c *Client) checkKey(op string) error {
	if c.opts.APIKey == "" {
		return fmt.Errorf("op=openai.%s: %w: OPENAI_API_KEY missing", op, domain.ErrModelUnavailable)
	}
	return nil
}

func toMessages(t domain.Transcript) []goopenai.ChatCompletionMessage {
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(t))
	for _, turn := range t {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: string(turn.Role), Content: turn.Content})
	}
	return msgs
}

// Complete streams a chat completion for the whole transcript and joins the
// content deltas in arrival order.
func (c *Client) Complete(ctx domain.Context, t domain.Transcript) (domain.Turn, error) {
	if err := c.checkKey("complete"); err != nil {
		return domain.Turn{}, err
	}
	lg := observability.LoggerFromContext(ctx)
	req := goopenai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Messages:    toMessages(t),
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
		TopP:        c.opts.TopP,
		Stream:      true,
	}
	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return domain.Turn{}, c.unavailable("complete", err)
	}
	defer stream.Close()

	var sb strings.Builder
	chunks := 0
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			lg.Warn("openai stream receive failed", slog.Int("chunks_received", chunks), slog.Any("error", err))
			return domain.Turn{}, c.unavailable("complete", err)
		}
		chunks++
		if len(resp.Choices) > 0 {
			sb.WriteString(resp.Choices[0].Delta.Content)
		}
	}
	lg.Debug("openai stream completed", slog.String("model", c.opts.Model), slog.Int("chunks_received", chunks))
	return domain.Turn{Role: domain.RoleAssistant, Content: sb.String()}, nil
}

// Generate runs one non-streaming completion.
func (c *Client) Generate(ctx domain.Context, r domain.GenerateRequest) (string, error) {
	if err := c.checkKey("generate"); err != nil {
		return "", err
	}
	var msgs []goopenai.ChatCompletionMessage
	if r.System != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: r.System})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: r.Prompt})
	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.opts.MaxTokens
	}
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: r.Temperature,
	})
	if err != nil {
		return "", c.unavailable("generate", err)
	}
	if len(resp.Choices) == 0 {
		return "", c.unavailable("generate", errors.New("empty choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// Synthesize converts text to speech. An empty voice uses the configured one.
func (c *Client) Synthesize(ctx domain.Context, text, voice string) ([]byte, error) {
	if err := c.checkKey("synthesize"); err != nil {
		return nil, err
	}
	if voice == "" {
		voice = c.opts.TTSVoice
	}
	var body io.ReadCloser
	body, err := c.api.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(c.opts.TTSModel),
		Input:          text,
		Voice:          goopenai.SpeechVoice(voice),
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		if errors.Is(err, goopenai.ErrInvalidVoice) || errors.Is(err, goopenai.ErrInvalidSpeechModel) {
			return nil, fmt.Errorf("op=openai.synthesize: %w: %v", domain.ErrInvalidArgument, err)
		}
		return nil, c.unavailable("synthesize", err)
	}
	defer func() { _ = body.Close() }()
	audio, err := io.ReadAll(body)
	if err != nil {
		return nil, c.unavailable("synthesize", err)
	}
	return audio, nil
}

// Transcribe sends audio to the speech-to-text model. fileName only hints the
// container format to the API.
func (c *Client) Transcribe(ctx domain.Context, fileName string, audio []byte) (string, error) {
	if err := c.checkKey("transcribe"); err != nil {
		return "", err
	}
	if fileName == "" {
		fileName = "audio.wav"
	}
	resp, err := c.api.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    c.opts.STTModel,
		FilePath: fileName,
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", c.unavailable("transcribe", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// Package tokencount estimates token usage for model calls.
//
// It uses tiktoken-go, a Go port of OpenAI's tiktoken, and falls back to the
// cl100k_base encoding for models tiktoken does not know (Gemini, Llama,
// NVIDIA hosted models). Counts are estimates used for metrics only.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// Counter provides thread-safe token counting.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{encodingCache: make(map[string]*tiktoken.Tiktoken)}
}

// DefaultCounter is a global token counter instance.
var DefaultCounter = NewCounter()

func (c *Counter) getEncodingForModel(model string) (*tiktoken.Tiktoken, error) {
	normalizedModel := normalizeModelName(model)

	c.mu.RLock()
	if enc, ok := c.encodingCache[normalizedModel]; ok {
		c.mu.RUnlock()
		return enc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[normalizedModel]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(normalizedModel)
	if err != nil {
		slog.Debug("falling back to cl100k_base encoding",
			slog.String("model", model),
			slog.String("normalized", normalizedModel),
			slog.Any("error", err))
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	c.encodingCache[normalizedModel] = enc
	return enc, nil
}

// normalizeModelName converts model ids to tiktoken-compatible names.
func normalizeModelName(model string) string {
	model = strings.ToLower(model)
	// NVIDIA and OpenRouter ids carry a vendor prefix, e.g. "meta/llama-3.1-405b-instruct".
	if strings.Contains(model, "/") {
		parts := strings.Split(model, "/")
		model = parts[len(parts)-1]
	}
	switch {
	case strings.Contains(model, "gpt-3.5"):
		return "gpt-3.5-turbo"
	default:
		// gpt-4, gemini, llama, mistral and unknown models share cl100k_base.
		return "gpt-4"
	}
}

// CountTokens counts the tokens in text for model.
func (c *Counter) CountTokens(text, model string) (int, error) {
	enc, err := c.getEncodingForModel(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// CountTranscript counts the prompt tokens of a chat request carrying turns.
// Every message costs 3 tokens of framing plus its role and content, and the
// reply is primed with 3 more.
func (c *Counter) CountTranscript(turns domain.Transcript, model string) (int, error) {
	enc, err := c.getEncodingForModel(model)
	if err != nil {
		return 0, err
	}
	const tokensPerMessage = 3
	n := 0
	for _, t := range turns {
		n += tokensPerMessage
		n += len(enc.Encode(string(t.Role), nil, nil))
		n += len(enc.Encode(t.Content, nil, nil))
	}
	return n + 3, nil
}

// Estimate counts text tokens and falls back to four characters per token when
// no encoding is available.
func (c *Counter) Estimate(text, model string) int {
	n, err := c.CountTokens(text, model)
	if err != nil {
		slog.Warn("failed to count tokens, using estimate", slog.String("model", model), slog.Any("error", err))
		return len(text) / 4
	}
	return n
}

// EstimateTranscript is CountTranscript with the same fallback as Estimate.
func (c *Counter) EstimateTranscript(turns domain.Transcript, model string) int {
	n, err := c.CountTranscript(turns, model)
	if err != nil {
		slog.Warn("failed to count prompt tokens, using estimate", slog.String("model", model), slog.Any("error", err))
		total := 0
		for _, t := range turns {
			total += len(t.Content)
		}
		return total / 4
	}
	return n
}

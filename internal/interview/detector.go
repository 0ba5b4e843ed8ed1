package interview

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
	"github.com/fairyhunter13/ai-interview-tutor/internal/observability"
)

// CompletionDetector asks a model whether an utterance explicitly ends the interview.
type CompletionDetector struct {
	gen         domain.TextGenerator
	maxTokens   int
	temperature float32
}

// NewCompletionDetector builds a detector. Non-positive maxTokens falls back to 5.
func NewCompletionDetector(gen domain.TextGenerator, maxTokens int, temperature float32) *CompletionDetector {
	if maxTokens <= 0 {
		maxTokens = 5
	}
	return &CompletionDetector{gen: gen, maxTokens: maxTokens, temperature: temperature}
}

// IsConversationEnding returns true only when the model answers exactly "yes".
// Errors are logged and reported as false.
func (d *CompletionDetector) IsConversationEnding(ctx domain.Context, utterance string) bool {
	if d == nil || d.gen == nil || domain.IsBlank(utterance) {
		return false
	}
	out, err := d.gen.Generate(ctx, domain.GenerateRequest{
		System:      detectorSystem,
		Prompt:      fmt.Sprintf(detectorPrompt, utterance),
		MaxTokens:   d.maxTokens,
		Temperature: d.temperature,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("completion detection failed; treating as not done",
			slog.Any("error", err))
		return false
	}
	return isYes(out)
}

func isYes(out string) bool {
	v := strings.ToLower(strings.TrimSpace(out))
	v = strings.TrimRight(v, ".!")
	return v == "yes"
}

package interview

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// Summarizer produces the post-interview manuscript and rating report.
type Summarizer struct {
	gen       domain.TextGenerator
	maxTokens int
}

// NewSummarizer builds a Summarizer around a one-shot text generator.
func NewSummarizer(gen domain.TextGenerator, maxTokens int) *Summarizer {
	return &Summarizer{gen: gen, maxTokens: maxTokens}
}

// Summarize sends the formatted transcript and verbatim criteria in one call.
// Any failure is reported as ErrSummarizationFailed.
func (s *Summarizer) Summarize(ctx domain.Context, t domain.Transcript, criteria string) (string, error) {
	prompt := BuildSummaryPrompt(t, criteria)
	out, err := s.gen.Generate(ctx, domain.GenerateRequest{Prompt: prompt, MaxTokens: s.maxTokens})
	if err != nil {
		return "", fmt.Errorf("op=summarizer.summarize: %w: %v", domain.ErrSummarizationFailed, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("op=summarizer.summarize: %w: empty summary", domain.ErrSummarizationFailed)
	}
	return out, nil
}

// BuildSummaryPrompt embeds the formatted conversation and the criteria in the fixed template.
func BuildSummaryPrompt(t domain.Transcript, criteria string) string {
	return fmt.Sprintf(summaryTemplate, FormatConversation(t), criteria)
}

// FormatConversation renders each turn on its own line. User turns belong to
// the interviewee; every other role speaks as the interviewer.
func FormatConversation(t domain.Transcript) string {
	var b strings.Builder
	for _, turn := range t {
		label := "Interviewer"
		if turn.Role == domain.RoleUser {
			label = "Interviewee"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return b.String()
}

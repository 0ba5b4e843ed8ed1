// Package stub provides a fast, deterministic model backend for local runs
// and tests. It never touches the network.
package stub

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// Client answers with canned interviewer lines.
type Client struct{}

// New returns a stub client.
func New() *Client { return &Client{} }

var questions = []string{
	"Thanks for joining. Could you walk me through your background?",
	"Tell me about a project you are proud of and your role in it.",
	"How do you approach debugging a problem you have never seen before?",
	"Describe a disagreement with a teammate and how you resolved it.",
	"Where do you see yourself growing over the next two years?",
}

// Complete picks the next question from the number of user turns so far.
func (c *Client) Complete(_ domain.Context, t domain.Transcript) (domain.Turn, error) {
	users := 0
	for _, turn := range t.Conversation() {
		if turn.Role == domain.RoleUser {
			users++
		}
	}
	return domain.Turn{Role: domain.RoleAssistant, Content: questions[users%len(questions)]}, nil
}

// Generate answers detector prompts with "no" unless the utterance clearly
// says goodbye, and echoes a short summary for anything else.
func (c *Client) Generate(_ domain.Context, r domain.GenerateRequest) (string, error) {
	p := strings.ToLower(r.Prompt)
	if strings.Contains(p, "'yes' or 'no'") {
		for _, w := range []string{"stop", "goodbye", "bye", "end the interview", "that's all"} {
			if strings.Contains(p, w) {
				return "yes", nil
			}
		}
		return "no", nil
	}
	return fmt.Sprintf("Summary (stub): %d characters reviewed.", len(r.Prompt)), nil
}

// Synthesize returns the text bytes as placeholder audio.
func (c *Client) Synthesize(_ domain.Context, text, _ string) ([]byte, error) {
	return []byte(text), nil
}

// Transcribe returns a fixed transcript.
func (c *Client) Transcribe(_ domain.Context, _ string, audio []byte) (string, error) {
	return fmt.Sprintf("stub transcript of %d bytes", len(audio)), nil
}

package stub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

func TestComplete_AdvancesThroughQuestions(t *testing.T) {
	c := New()
	seed := domain.Transcript{
		{Role: domain.RoleSystem, Content: "persona"},
		{Role: domain.RoleUser, Content: "start"},
	}
	first, err := c.Complete(context.Background(), seed)
	require.NoError(t, err)
	second, err := c.Complete(context.Background(), append(seed,
		domain.Turn{Role: domain.RoleAssistant, Content: first.Content},
		domain.Turn{Role: domain.RoleUser, Content: "I build backends."},
	))
	require.NoError(t, err)
	assert.NotEqual(t, first.Content, second.Content)
}

func TestGenerate_DetectorPrompts(t *testing.T) {
	c := New()
	out, _ := c.Generate(context.Background(), domain.GenerateRequest{Prompt: "Given this statement: 'I'd like to stop now', ... Respond ONLY with 'yes' or 'no'"})
	assert.Equal(t, "yes", out)
	out, _ = c.Generate(context.Background(), domain.GenerateRequest{Prompt: "Given this statement: 'I use Go daily', ... Respond ONLY with 'yes' or 'no'"})
	assert.Equal(t, "no", out)
	out, _ = c.Generate(context.Background(), domain.GenerateRequest{Prompt: "summarize"})
	assert.Contains(t, out, "Summary")
}

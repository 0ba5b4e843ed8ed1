package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProgress_Record(t *testing.T) {
	tests := []struct {
		name        string
		submissions []bool // all for the same question
		wantCorrect int
		wantTotal   int
	}{
		{"first correct", []bool{true}, 1, 1},
		{"first incorrect", []bool{false}, 0, 1},
		{"correct twice", []bool{true, true}, 1, 1},
		{"incorrect twice", []bool{false, false}, 0, 1},
		{"incorrect then correct", []bool{false, true}, 1, 1},
		{"correct then incorrect", []bool{true, false}, 0, 1},
		{"flip flop", []bool{true, false, true, false, true}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p UserProgress
			for _, ok := range tt.submissions {
				p.Record(7, ok)
			}
			assert.Equal(t, tt.wantCorrect, p.Correct)
			assert.Equal(t, tt.wantTotal, p.Total)
			assert.Equal(t, tt.submissions[len(tt.submissions)-1], p.Answers[7])
		})
	}
}

func TestUserProgress_RecordAcrossQuestions(t *testing.T) {
	var p UserProgress
	p.Record(1, true)
	p.Record(2, false)
	p.Record(3, true)
	p.Record(2, true)
	require.Equal(t, 3, p.Correct)
	require.Equal(t, 3, p.Total)
	require.InDelta(t, 100.0, p.Accuracy(), 0.001)
}

func TestUserProgress_Accuracy(t *testing.T) {
	assert.Equal(t, 0.0, UserProgress{}.Accuracy())
	assert.InDelta(t, 66.666, UserProgress{Correct: 2, Total: 3}.Accuracy(), 0.01)
}

func TestQuizQuestion_Validate(t *testing.T) {
	ok := QuizQuestion{ID: 1, Question: "2+2?", Options: []string{"1", "2", "3", "4"}, CorrectOptionIndex: 3}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.Options = []string{"a", "b"}
	require.ErrorIs(t, bad.Validate(), ErrInvalidArgument)

	bad = ok
	bad.CorrectOptionIndex = 4
	require.ErrorIs(t, bad.Validate(), ErrInvalidArgument)

	bad = ok
	bad.Question = "  "
	require.ErrorIs(t, bad.Validate(), ErrInvalidArgument)
}

func TestTranscript_CloneAndConversation(t *testing.T) {
	tr := Transcript{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "start"},
		{Role: RoleAssistant, Content: "hello"},
	}
	c := tr.Clone()
	c[2].Content = "changed"
	require.Equal(t, "hello", tr[2].Content)
	require.Len(t, tr.Conversation(), 1)
	require.Nil(t, tr[:2].Conversation())
}

func TestPromptErrorsWrapFileMissing(t *testing.T) {
	require.True(t, errors.Is(ErrPersonaNotFound, ErrPromptFileMissing))
	require.True(t, errors.Is(ErrCriteriaNotFound, ErrPromptFileMissing))
	require.False(t, errors.Is(ErrPersonaNotFound, ErrCriteriaNotFound))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank(" \t\n"))
	assert.False(t, IsBlank(" hi "))
}

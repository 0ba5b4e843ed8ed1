package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrInternal               = errors.New("internal error")
	ErrModelUnavailable       = errors.New("model unavailable")
	ErrSummarizationFailed    = errors.New("summarization failed")
	ErrSessionNotFound        = errors.New("session not found")
	ErrSessionAlreadyFinished = errors.New("session already finished")
	ErrQuestionNotFound       = errors.New("question not found")
	ErrCatalogEmpty           = errors.New("question catalog empty")
	ErrPromptFileMissing      = errors.New("persona or criteria file missing")
	ErrQueueFull              = errors.New("queue full")
	ErrQueueClosed            = errors.New("queue closed")
)

// Persona and criteria lookups wrap ErrPromptFileMissing so callers can match either.
var (
	ErrPersonaNotFound  = fmt.Errorf("persona not found: %w", ErrPromptFileMissing)
	ErrCriteriaNotFound = fmt.Errorf("criteria not found: %w", ErrPromptFileMissing)
)

// Role tags the author of a Turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message. Turns are never edited once appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SeedTurns is the number of directive turns every interview transcript starts with:
// the system persona and the synthetic user start directive.
const SeedTurns = 2

// Transcript is the ordered conversation sent to a language model.
type Transcript []Turn

// Clone returns a copy that shares no backing array with t.
func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Conversation returns the turns after the seed directives.
func (t Transcript) Conversation() []Turn {
	if len(t) <= SeedTurns {
		return nil
	}
	return t[SeedTurns:]
}

// IsBlank reports whether an utterance carries no content.
func IsBlank(s string) bool { return strings.TrimSpace(s) == "" }

// QuizQuestion is one multiple-choice record of the aptitude catalog.
// Invariants: ID unique; exactly OptionCount options; CorrectOptionIndex in [0, OptionCount).
type QuizQuestion struct {
	ID                 int      `json:"id" yaml:"id"`
	Question           string   `json:"question" yaml:"question"`
	Options            []string `json:"options" yaml:"options"`
	CorrectOptionIndex int      `json:"correct_option_index" yaml:"correct_option_index"`
	Explanation        string   `json:"explanation" yaml:"explanation"`
}

// OptionCount is the number of options every question carries.
const OptionCount = 4

// Validate checks the structural invariants of a question.
func (q QuizQuestion) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: question %d has empty text", ErrInvalidArgument, q.ID)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("%w: question %d has %d options, want %d", ErrInvalidArgument, q.ID, len(q.Options), OptionCount)
	}
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= OptionCount {
		return fmt.Errorf("%w: question %d correct index %d out of range", ErrInvalidArgument, q.ID, q.CorrectOptionIndex)
	}
	return nil
}

// UserProgress is the per-user quiz score.
type UserProgress struct {
	Correct int          `json:"correct"`
	Total   int          `json:"total"`
	Answers map[int]bool `json:"answers"`
}

// Record applies one submission:
//   - first answer to a question: Total+1, Correct+1 when correct
//   - wrong then correct: Correct+1
//   - correct then wrong: Correct-1
//   - same result again: unchanged
//
// Correct therefore always equals the number of questions whose latest answer is correct.
func (p *UserProgress) Record(questionID int, isCorrect bool) {
	if p.Answers == nil {
		p.Answers = make(map[int]bool)
	}
	prev, seen := p.Answers[questionID]
	switch {
	case !seen:
		p.Total++
		if isCorrect {
			p.Correct++
		}
	case !prev && isCorrect:
		p.Correct++
	case prev && !isCorrect:
		p.Correct--
	}
	p.Answers[questionID] = isCorrect
}

// Accuracy returns the percentage of correct answers, 0 when nothing was answered.
func (p UserProgress) Accuracy() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Correct) / float64(p.Total) * 100
}

// Submission is the outcome of one answer submission.
type Submission struct {
	IsCorrect          bool `json:"is_correct"`
	CorrectOptionIndex int  `json:"correct_option_index"`
}

// InterviewEvent is published when an interview starts or completes.
type InterviewEvent struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	SessionID  string `json:"session_id"`
	Persona    string `json:"persona,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Turns      int    `json:"turns"`
	Summary    string `json:"summary,omitempty"`
	OccurredAt int64  `json:"occurred_at"`
}

const (
	EventInterviewStarted   = "interview.started"
	EventInterviewCompleted = "interview.completed"
)

// Ports

// LanguageModelClient produces the next assistant turn for a transcript.
// Streamed output is concatenated in arrival order. Any transport or remote
// failure is reported as ErrModelUnavailable; implementations never retry.
type LanguageModelClient interface {
	Complete(ctx Context, t Transcript) (Turn, error)
}

// GenerateRequest is a one-shot, non-streaming prompt.
type GenerateRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// TextGenerator answers a single prompt. Failures wrap ErrModelUnavailable.
type TextGenerator interface {
	Generate(ctx Context, req GenerateRequest) (string, error)
}

// ProgressStore persists UserProgress. Record must apply UserProgress.Record atomically.
type ProgressStore interface {
	Record(ctx Context, userID string, questionID int, isCorrect bool) (UserProgress, error)
	Get(ctx Context, userID string) (UserProgress, error)
}

// ChatHistoryStore keeps the per-user tutor conversation, oldest first.
// Append trims the history to the newest limit turns when limit > 0.
type ChatHistoryStore interface {
	Append(ctx Context, userID string, limit int, turns ...Turn) error
	List(ctx Context, userID string) ([]Turn, error)
}

// PromptLibrary resolves persona and criteria texts by name.
type PromptLibrary interface {
	Persona(ctx Context, name string) (string, error)
	Criteria(ctx Context, name string) (string, error)
}

// SpeechSynthesizer converts text to encoded audio.
type SpeechSynthesizer interface {
	Synthesize(ctx Context, text, voice string) ([]byte, error)
}

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx Context, fileName string, audio []byte) (string, error)
}

// AudioSink plays (or stores) synthesized audio. Calls are serialized by the speech queue.
type AudioSink interface {
	Play(ctx Context, audio []byte) error
}

// EventPublisher emits interview lifecycle events. Failures never affect the caller's outcome.
type EventPublisher interface {
	Publish(ctx Context, ev InterviewEvent) error
}

// Context alias to avoid importing context everywhere in domain consumers.
type Context = context.Context

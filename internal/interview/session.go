// Package interview implements the interview conversation: the per-session
// state machine, the registry that owns live sessions, completion detection
// and transcript summarization.
package interview

import (
	"errors"
	"fmt"
	"time"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// State is the lifecycle position of a Session.
type State int

const (
	// StateCreated holds only the seed directives; no model call has succeeded yet.
	StateCreated State = iota
	// StateActive accepts utterances.
	StateActive
	// StateDone is terminal; only summarization and removal remain.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Session is one interview conversation. It is not safe for concurrent use;
// Registry.With serializes access.
type Session struct {
	id         string
	model      domain.LanguageModelClient
	transcript domain.Transcript
	state      State
	createdAt  time.Time
	lastActive time.Time
	now        func() time.Time
}

// NewSession seeds a transcript with the persona directive and the start directive.
func NewSession(id string, model domain.LanguageModelClient, persona string) *Session {
	return newSessionAt(id, model, persona, time.Now)
}

func newSessionAt(id string, model domain.LanguageModelClient, persona string, now func() time.Time) *Session {
	ts := now()
	return &Session{
		id:    id,
		model: model,
		transcript: domain.Transcript{
			{Role: domain.RoleSystem, Content: fmt.Sprintf(personaDirective, persona)},
			{Role: domain.RoleUser, Content: StartDirective},
		},
		state:      StateCreated,
		createdAt:  ts,
		lastActive: ts,
		now:        now,
	}
}

// ID returns the registry identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Done reports whether the session reached its terminal state.
func (s *Session) Done() bool { return s.state == StateDone }

// LastActive is the time of the last successful advance or creation.
func (s *Session) LastActive() time.Time { return s.lastActive }

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() domain.Transcript { return s.transcript.Clone() }

// Advance appends the utterance as a user turn (skipped when blank), asks the
// model for the next assistant turn and appends it. The transcript is only
// modified when the model call succeeds.
func (s *Session) Advance(ctx domain.Context, utterance string) (domain.Turn, error) {
	if s.state == StateDone {
		return domain.Turn{}, fmt.Errorf("op=session.advance: %w", domain.ErrSessionAlreadyFinished)
	}
	next := s.transcript.Clone()
	if !domain.IsBlank(utterance) {
		next = append(next, domain.Turn{Role: domain.RoleUser, Content: utterance})
	}
	turn, err := s.model.Complete(ctx, next)
	if err != nil {
		if errors.Is(err, domain.ErrModelUnavailable) {
			return domain.Turn{}, fmt.Errorf("op=session.advance: %w", err)
		}
		return domain.Turn{}, fmt.Errorf("op=session.advance: %w: %v", domain.ErrModelUnavailable, err)
	}
	turn.Role = domain.RoleAssistant
	s.transcript = append(next, turn)
	s.state = StateActive
	s.lastActive = s.now()
	return turn, nil
}

// MarkDone latches the terminal state.
func (s *Session) MarkDone() { s.state = StateDone }

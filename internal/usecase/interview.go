// Package usecase contains application business logic services.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
	"github.com/fairyhunter13/ai-interview-tutor/internal/interview"
	obsctx "github.com/fairyhunter13/ai-interview-tutor/internal/observability"
	"github.com/fairyhunter13/ai-interview-tutor/pkg/textx"
)

// EndingDetector decides whether an utterance closes the interview.
type EndingDetector interface {
	IsConversationEnding(ctx domain.Context, utterance string) bool
}

// TranscriptSummarizer turns a finished transcript into a report.
type TranscriptSummarizer interface {
	Summarize(ctx domain.Context, t domain.Transcript, criteria string) (string, error)
}

// StartResult is returned when an interview begins.
type StartResult struct {
	SessionID          string `json:"session_id"`
	InterviewerMessage string `json:"interviewer_message"`
}

// RespondResult is returned for each interviewee answer.
type RespondResult struct {
	InterviewerMessage string `json:"interviewer_message"`
	IsInterviewDone    bool   `json:"is_interview_done"`
}

// HistoryResult is the full transcript of a live session.
type HistoryResult struct {
	SessionID string        `json:"session_id"`
	History   []domain.Turn `json:"history"`
	IsDone    bool          `json:"is_done"`
}

// InterviewService drives interview sessions from start to summary.
type InterviewService struct {
	Sessions   *interview.Registry
	Detector   EndingDetector
	Summarizer TranscriptSummarizer
	Prompts    domain.PromptLibrary
	Events     domain.EventPublisher

	// PublishTimeout bounds each event publish; zero uses DefaultPublishTimeout.
	PublishTimeout time.Duration
}

// DefaultPublishTimeout bounds event publishing when none is configured.
const DefaultPublishTimeout = 2 * time.Second

// NewInterviewService constructs an InterviewService. A nil publisher disables events.
func NewInterviewService(reg *interview.Registry, det EndingDetector, sum TranscriptSummarizer, prompts domain.PromptLibrary, events domain.EventPublisher) InterviewService {
	return InterviewService{Sessions: reg, Detector: det, Summarizer: sum, Prompts: prompts, Events: events}
}

// Start resolves the persona, opens a session and returns the opening question.
func (s InterviewService) Start(ctx domain.Context, personaName, difficulty string) (StartResult, error) {
	tracer := otel.Tracer("usecase.interview")
	ctx, span := tracer.Start(ctx, "InterviewService.Start")
	defer span.End()
	span.SetAttributes(attribute.String("interview.persona", personaName), attribute.String("interview.difficulty", difficulty))

	personaText, err := s.Prompts.Persona(ctx, personaName)
	if err != nil {
		return StartResult{}, fmt.Errorf("op=interview.start: %w", err)
	}
	id, turn, err := s.Sessions.Create(ctx, interview.ComposePersona(personaText, difficulty))
	if err != nil {
		span.RecordError(err)
		return StartResult{}, fmt.Errorf("op=interview.start: %w", err)
	}
	observability.SessionStarted()
	span.SetAttributes(attribute.String("interview.session_id", id))
	obsctx.LoggerFromContext(obsctx.ContextWithSessionID(ctx, id)).Info("interview started", slog.String("persona", personaName))

	s.publish(ctx, domain.InterviewEvent{
		Type:       domain.EventInterviewStarted,
		SessionID:  id,
		Persona:    personaName,
		Difficulty: difficulty,
		Turns:      domain.SeedTurns + 1,
	})
	return StartResult{SessionID: id, InterviewerMessage: turn.Content}, nil
}

// Respond records the interviewee's answer, fetches the next question and
// checks whether the answer ends the interview.
func (s InterviewService) Respond(ctx domain.Context, sessionID, userText string) (RespondResult, error) {
	tracer := otel.Tracer("usecase.interview")
	ctx, span := tracer.Start(ctx, "InterviewService.Respond")
	defer span.End()
	span.SetAttributes(attribute.String("interview.session_id", sessionID))
	ctx = obsctx.ContextWithSessionID(ctx, sessionID)

	utterance := textx.SanitizeText(userText)
	var res RespondResult
	err := s.Sessions.With(sessionID, func(sess *interview.Session) error {
		turn, err := sess.Advance(ctx, utterance)
		if err != nil {
			return err
		}
		if s.Detector != nil && s.Detector.IsConversationEnding(ctx, utterance) {
			sess.MarkDone()
			obsctx.LoggerFromContext(ctx).Info("interviewee signalled the end of the interview")
		}
		res = RespondResult{InterviewerMessage: turn.Content, IsInterviewDone: sess.Done()}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return RespondResult{}, fmt.Errorf("op=interview.respond: %w", err)
	}
	span.SetAttributes(attribute.Bool("interview.done", res.IsInterviewDone))
	return res, nil
}

// History returns a snapshot of the session transcript including the seed directives.
func (s InterviewService) History(_ domain.Context, sessionID string) (HistoryResult, error) {
	snap, err := s.Sessions.Get(sessionID)
	if err != nil {
		return HistoryResult{}, fmt.Errorf("op=interview.history: %w", err)
	}
	return HistoryResult{SessionID: sessionID, History: snap.Transcript, IsDone: snap.Done()}, nil
}

// End summarizes the session against the named criteria and removes it.
// The session survives a failed summary so the caller may retry.
func (s InterviewService) End(ctx domain.Context, sessionID, criteriaName string) (string, error) {
	tracer := otel.Tracer("usecase.interview")
	ctx, span := tracer.Start(ctx, "InterviewService.End")
	defer span.End()
	span.SetAttributes(attribute.String("interview.session_id", sessionID))
	ctx = obsctx.ContextWithSessionID(ctx, sessionID)

	var (
		summary string
		turns   int
	)
	err := s.Sessions.Finish(sessionID, func(sess *interview.Session) error {
		criteria, err := s.Prompts.Criteria(ctx, criteriaName)
		if err != nil {
			return err
		}
		t := sess.Transcript()
		out, err := s.Summarizer.Summarize(ctx, t, criteria)
		if err != nil {
			return err
		}
		sess.MarkDone()
		summary, turns = out, len(t)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("op=interview.end: %w", err)
	}
	observability.SessionRemoved("completed")
	obsctx.LoggerFromContext(ctx).Info("interview ended", slog.Int("turns", turns))

	s.publish(ctx, domain.InterviewEvent{
		Type:      domain.EventInterviewCompleted,
		SessionID: sessionID,
		Turns:     turns,
		Summary:   summary,
	})
	return summary, nil
}

// SweepIdle evicts sessions idle since before cutoff and returns how many were removed.
func (s InterviewService) SweepIdle(ctx domain.Context, cutoff time.Time) int {
	evicted := s.Sessions.EvictIdle(cutoff)
	for _, id := range evicted {
		observability.SessionRemoved("evicted")
		obsctx.LoggerFromContext(obsctx.ContextWithSessionID(ctx, id)).Info("idle interview session evicted")
	}
	return len(evicted)
}

// publish never fails the caller; errors are only logged. It runs detached
// from the request deadline and bounded by PublishTimeout, so a stalled
// broker cannot hold the response.
func (s InterviewService) publish(ctx domain.Context, ev domain.InterviewEvent) {
	if s.Events == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.OccurredAt = time.Now().UTC().Unix()
	timeout := s.PublishTimeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := s.Events.Publish(pubCtx, ev); err != nil {
		obsctx.LoggerFromContext(ctx).Warn("failed to publish interview event",
			slog.String("type", ev.Type),
			slog.String("summary_preview", textx.Truncate(ev.Summary, 80)),
			slog.Any("error", err))
	}
}

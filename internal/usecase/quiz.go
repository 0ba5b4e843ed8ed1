package usecase

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
	"github.com/fairyhunter13/ai-interview-tutor/internal/quiz"
)

// PublicQuestion is a quiz question without its answer.
type PublicQuestion struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuizService serves the aptitude question bank and records answers.
type QuizService struct {
	Catalog *quiz.Catalog
	Tracker *quiz.Tracker
}

// NewQuizService constructs a QuizService over a catalog and progress store.
func NewQuizService(c *quiz.Catalog, store domain.ProgressStore) QuizService {
	return QuizService{Catalog: c, Tracker: quiz.NewTracker(c, store)}
}

// RandomQuestion draws a question uniformly from the catalog.
func (s QuizService) RandomQuestion(_ domain.Context) (PublicQuestion, error) {
	q, err := s.Catalog.Random()
	if err != nil {
		return PublicQuestion{}, fmt.Errorf("op=quiz.random: %w", err)
	}
	return PublicQuestion{ID: q.ID, Question: q.Question, Options: append([]string(nil), q.Options...)}, nil
}

// SubmitAnswer grades an answer and updates the user's progress.
func (s QuizService) SubmitAnswer(ctx domain.Context, userID string, questionID, selected int) (domain.Submission, error) {
	ctx, span := otel.Tracer("usecase.quiz").Start(ctx, "QuizService.SubmitAnswer")
	defer span.End()
	span.SetAttributes(attribute.Int("quiz.question_id", questionID))

	sub, err := s.Tracker.Submit(ctx, userID, questionID, selected)
	if err != nil {
		span.RecordError(err)
		return domain.Submission{}, err
	}
	observability.QuizSubmitted(sub.IsCorrect)
	return sub, nil
}

// Progress returns the user's score.
func (s QuizService) Progress(ctx domain.Context, userID string) (quiz.Progress, error) {
	return s.Tracker.Progress(ctx, userID)
}

package usecase

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
	"github.com/fairyhunter13/ai-interview-tutor/internal/quiz"
	"github.com/fairyhunter13/ai-interview-tutor/pkg/textx"
)

const (
	tutorDirective = "You are a patient aptitude tutor. Help the learner with quantitative aptitude, logical reasoning and verbal ability. Explain step by step, keep answers short, and end with a quick check question when useful."
	explainPrompt  = "Explain the aptitude concept %q. Cover its definition, the standard formulas or shortcuts, one worked example, and common mistakes."
)

// TutorService answers aptitude questions and keeps a per-user chat history.
type TutorService struct {
	Model        domain.LanguageModelClient
	Generator    domain.TextGenerator
	History      domain.ChatHistoryStore
	HistoryLimit int
	MaxTokens    int
}

// NewTutorService constructs a TutorService.
func NewTutorService(model domain.LanguageModelClient, gen domain.TextGenerator, history domain.ChatHistoryStore, historyLimit, maxTokens int) TutorService {
	return TutorService{Model: model, Generator: gen, History: history, HistoryLimit: historyLimit, MaxTokens: maxTokens}
}

// ExplainConcept generates an explanation for topic and records the exchange.
func (s TutorService) ExplainConcept(ctx domain.Context, userID, topic string) (string, error) {
	ctx, span := otel.Tracer("usecase.tutor").Start(ctx, "TutorService.ExplainConcept")
	defer span.End()

	topic = textx.SanitizeText(topic)
	if topic == "" {
		return "", fmt.Errorf("op=tutor.explain: %w: topic cannot be empty", domain.ErrInvalidArgument)
	}
	out, err := s.Generator.Generate(ctx, domain.GenerateRequest{
		System:    tutorDirective,
		Prompt:    fmt.Sprintf(explainPrompt, topic),
		MaxTokens: s.MaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("op=tutor.explain: %w", err)
	}
	out = strings.TrimSpace(out)
	err = s.History.Append(ctx, userKey(userID), s.HistoryLimit,
		domain.Turn{Role: domain.RoleUser, Content: "Explain: " + topic},
		domain.Turn{Role: domain.RoleAssistant, Content: out},
	)
	if err != nil {
		return "", fmt.Errorf("op=tutor.explain: %w", err)
	}
	return out, nil
}

// Chat sends the user's history plus message to the model. The history is
// only extended when the model answers.
func (s TutorService) Chat(ctx domain.Context, userID, message string) (string, error) {
	ctx, span := otel.Tracer("usecase.tutor").Start(ctx, "TutorService.Chat")
	defer span.End()

	message = textx.SanitizeText(message)
	if message == "" {
		return "", fmt.Errorf("op=tutor.chat: %w: message cannot be empty", domain.ErrInvalidArgument)
	}
	user := userKey(userID)
	past, err := s.History.List(ctx, user)
	if err != nil {
		return "", fmt.Errorf("op=tutor.chat: %w", err)
	}
	t := make(domain.Transcript, 0, len(past)+2)
	t = append(t, domain.Turn{Role: domain.RoleSystem, Content: tutorDirective})
	t = append(t, past...)
	userTurn := domain.Turn{Role: domain.RoleUser, Content: message}
	t = append(t, userTurn)

	reply, err := s.Model.Complete(ctx, t)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("op=tutor.chat: %w", err)
	}
	reply.Role = domain.RoleAssistant
	if err := s.History.Append(ctx, user, s.HistoryLimit, userTurn, reply); err != nil {
		return "", fmt.Errorf("op=tutor.chat: %w", err)
	}
	return reply.Content, nil
}

// ChatHistory returns the user's tutor conversation, oldest first.
func (s TutorService) ChatHistory(ctx domain.Context, userID string) ([]domain.Turn, error) {
	turns, err := s.History.List(ctx, userKey(userID))
	if err != nil {
		return nil, fmt.Errorf("op=tutor.history: %w", err)
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	return turns, nil
}

func userKey(userID string) string {
	if domain.IsBlank(userID) {
		return quiz.DefaultUserID
	}
	return strings.TrimSpace(userID)
}

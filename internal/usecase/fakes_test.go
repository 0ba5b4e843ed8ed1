package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

type fakeModel struct {
	mu    sync.Mutex
	calls int
	err   error
	seen  []domain.Transcript
}

func (m *fakeModel) Complete(_ context.Context, t domain.Transcript) (domain.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, t.Clone())
	if m.err != nil {
		return domain.Turn{}, m.err
	}
	m.calls++
	return domain.Turn{Role: domain.RoleAssistant, Content: fmt.Sprintf("question %d", m.calls)}, nil
}

type fakeGen struct {
	out  string
	err  error
	reqs []domain.GenerateRequest
}

func (g *fakeGen) Generate(_ context.Context, req domain.GenerateRequest) (string, error) {
	g.reqs = append(g.reqs, req)
	return g.out, g.err
}

type fixedDetector struct{ ending bool }

func (d fixedDetector) IsConversationEnding(_ context.Context, _ string) bool { return d.ending }

type fakeSummarizer struct {
	out      string
	err      error
	criteria string
	turns    int
}

func (s *fakeSummarizer) Summarize(_ context.Context, t domain.Transcript, criteria string) (string, error) {
	s.criteria, s.turns = criteria, len(t)
	return s.out, s.err
}

type fakePrompts struct{}

func (fakePrompts) Persona(_ context.Context, name string) (string, error) {
	if name == "ethan" {
		return "You are Ethan.", nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrPersonaNotFound, name)
}

func (fakePrompts) Criteria(_ context.Context, name string) (string, error) {
	if strings.Contains(name, "guidelines") {
		return "Rate communication.", nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrCriteriaNotFound, name)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.InterviewEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.InterviewEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

var errBoom = errors.New("boom")

// stalledPublisher blocks until its context ends, like a producer whose broker is gone.
type stalledPublisher struct {
	mu    sync.Mutex
	calls int
}

func (p *stalledPublisher) Publish(ctx context.Context, _ domain.InterviewEvent) error {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

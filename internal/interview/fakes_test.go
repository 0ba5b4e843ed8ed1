package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// scriptedModel answers with "reply-N" unless err is set; it records every transcript it sees.
type scriptedModel struct {
	mu    sync.Mutex
	err   error
	calls []domain.Transcript
}

func (m *scriptedModel) Complete(_ context.Context, t domain.Transcript) (domain.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, t.Clone())
	if m.err != nil {
		return domain.Turn{}, m.err
	}
	return domain.Turn{Role: domain.RoleAssistant, Content: fmt.Sprintf("reply-%d", len(m.calls))}, nil
}

func (m *scriptedModel) setErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *scriptedModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// genStub is a TextGenerator returning a fixed output or error.
type genStub struct {
	mu   sync.Mutex
	out  string
	err  error
	reqs []domain.GenerateRequest
}

func (g *genStub) Generate(_ context.Context, req domain.GenerateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	return g.out, g.err
}

var errBoom = errors.New("boom")

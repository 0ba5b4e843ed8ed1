// Package memory keeps quiz progress in process memory.
package memory

import (
	"sync"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// ProgressStore is a map guarded by a mutex. Progress is lost on restart.
type ProgressStore struct {
	mu    sync.Mutex
	users map[string]*domain.UserProgress
}

// NewProgressStore returns an empty store.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{users: make(map[string]*domain.UserProgress)}
}

// Record applies one submission and returns the updated progress.
func (s *ProgressStore) Record(_ domain.Context, userID string, questionID int, isCorrect bool) (domain.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[userID]
	if !ok {
		p = &domain.UserProgress{Answers: make(map[int]bool)}
		s.users[userID] = p
	}
	p.Record(questionID, isCorrect)
	return snapshot(p), nil
}

// Get returns a copy of userID's progress.
func (s *ProgressStore) Get(_ domain.Context, userID string) (domain.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[userID]
	if !ok {
		return domain.UserProgress{Answers: map[int]bool{}}, nil
	}
	return snapshot(p), nil
}

func snapshot(p *domain.UserProgress) domain.UserProgress {
	answers := make(map[int]bool, len(p.Answers))
	for k, v := range p.Answers {
		answers[k] = v
	}
	return domain.UserProgress{Correct: p.Correct, Total: p.Total, Answers: answers}
}

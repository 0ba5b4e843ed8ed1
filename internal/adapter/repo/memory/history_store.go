package memory

import (
	"sync"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// HistoryStore keeps tutor chat turns per user.
type HistoryStore struct {
	mu    sync.RWMutex
	turns map[string][]domain.Turn
}

// NewHistoryStore returns an empty store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{turns: make(map[string][]domain.Turn)}
}

// Append adds turns and keeps at most limit of the newest.
func (s *HistoryStore) Append(_ domain.Context, userID string, limit int, turns ...domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := append(s.turns[userID], turns...)
	if limit > 0 && len(h) > limit {
		h = append([]domain.Turn(nil), h[len(h)-limit:]...)
	}
	s.turns[userID] = h
	return nil
}

// List returns a copy of the history.
func (s *HistoryStore) List(_ domain.Context, userID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Turn, len(s.turns[userID]))
	copy(out, s.turns[userID])
	return out, nil
}

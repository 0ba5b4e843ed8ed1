package interview

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

type entry struct {
	mu      sync.Mutex
	session *Session
	removed bool
}

// Registry owns the live interview sessions keyed by a random identifier.
// The map is guarded by an RWMutex; every operation on one session runs
// under that session's own mutex, so different sessions proceed in parallel.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	model    domain.LanguageModelClient
	newID    func() (string, error)
	now      func() time.Time
}

// NewRegistry constructs an empty registry whose sessions talk to model.
func NewRegistry(model domain.LanguageModelClient) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		model:    model,
		newID:    randomID,
		now:      time.Now,
	}
}

func randomID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Create builds a session for persona and performs the opening advance
// synchronously. The session is registered only when that first model call
// succeeds.
func (r *Registry) Create(ctx domain.Context, persona string) (string, domain.Turn, error) {
	id, err := r.newID()
	if err != nil {
		return "", domain.Turn{}, fmt.Errorf("op=registry.create: %w: %v", domain.ErrInternal, err)
	}
	s := newSessionAt(id, r.model, persona, r.now)
	turn, err := s.Advance(ctx, "")
	if err != nil {
		return "", domain.Turn{}, fmt.Errorf("op=registry.create: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.sessions[id]; taken {
		// uuid collision; never hand out a live identifier twice
		return "", domain.Turn{}, fmt.Errorf("op=registry.create: %w: duplicate session id", domain.ErrInternal)
	}
	r.sessions[id] = &entry{session: s}
	return id, turn, nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("op=registry.lookup: %w", domain.ErrSessionNotFound)
	}
	return e, nil
}

// Snapshot is a point-in-time copy of a session taken under its lock.
type Snapshot struct {
	ID         string
	State      State
	Transcript domain.Transcript
	LastActive time.Time
}

// Done reports whether the session had reached StateDone.
func (s Snapshot) Done() bool { return s.State == StateDone }

// Get returns a copy of the session's current state.
func (r *Registry) Get(id string) (Snapshot, error) {
	var snap Snapshot
	err := r.With(id, func(s *Session) error {
		snap = Snapshot{ID: s.ID(), State: s.State(), Transcript: s.Transcript(), LastActive: s.LastActive()}
		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("op=registry.get: %w", err)
	}
	return snap, nil
}

// With runs fn while holding the session's lock.
func (r *Registry) With(id string, fn func(*Session) error) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return fmt.Errorf("op=registry.with: %w", domain.ErrSessionNotFound)
	}
	return fn(e.session)
}

// Finish runs fn under the session's lock and removes the session when fn succeeds.
// On failure the session stays registered so the caller can try again.
func (r *Registry) Finish(id string, fn func(*Session) error) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return fmt.Errorf("op=registry.finish: %w", domain.ErrSessionNotFound)
	}
	if err := fn(e.session); err != nil {
		return err
	}
	r.drop(id, e)
	return nil
}

// Remove deletes a session without running anything on it.
func (r *Registry) Remove(id string) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return fmt.Errorf("op=registry.remove: %w", domain.ErrSessionNotFound)
	}
	r.drop(id, e)
	return nil
}

// drop must be called with e.mu held.
func (r *Registry) drop(id string, e *entry) {
	e.removed = true
	r.mu.Lock()
	if cur, ok := r.sessions[id]; ok && cur == e {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
}

// EvictIdle removes sessions whose last activity is before cutoff. Sessions
// busy with another operation are skipped and reconsidered on the next sweep.
func (r *Registry) EvictIdle(cutoff time.Time) []string {
	r.mu.RLock()
	candidates := make(map[string]*entry, len(r.sessions))
	for id, e := range r.sessions {
		candidates[id] = e
	}
	r.mu.RUnlock()

	var evicted []string
	for id, e := range candidates {
		if !e.mu.TryLock() {
			continue
		}
		if !e.removed && e.session.LastActive().Before(cutoff) {
			r.drop(id, e)
			evicted = append(evicted, id)
		}
		e.mu.Unlock()
	}
	return evicted
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

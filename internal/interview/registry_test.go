package interview

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

func TestRegistry_CreateRegistersAfterOpeningTurn(t *testing.T) {
	m := &scriptedModel{}
	r := NewRegistry(m)

	id, turn, err := r.Create(context.Background(), "persona")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, "reply-1", turn.Content)
	assert.Equal(t, 1, r.Len())
	// opening call saw only the seed directives
	require.Len(t, m.calls[0], domain.SeedTurns)

	err = r.With(id, func(s *Session) error {
		assert.Equal(t, StateActive, s.State())
		assert.Len(t, s.Transcript(), 3)
		return nil
	})
	require.NoError(t, err)

	snap, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, StateActive, snap.State)
	assert.False(t, snap.Done())
	require.Len(t, snap.Transcript, 3)
	snap.Transcript[2].Content = "mutated"
	again, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "reply-1", again.Transcript[2].Content)
}

func TestRegistry_CreateFailureDoesNotRegister(t *testing.T) {
	m := &scriptedModel{err: errBoom}
	r := NewRegistry(m)
	_, _, err := r.Create(context.Background(), "persona")
	require.ErrorIs(t, err, domain.ErrModelUnavailable)
	require.Equal(t, 0, r.Len())
}

func TestRegistry_IDsAreDistinct(t *testing.T) {
	r := NewRegistry(&scriptedModel{})
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, _, err := r.Create(context.Background(), "p")
		require.NoError(t, err)
		require.False(t, seen[id])
		require.Len(t, id, 36)
		seen[id] = true
	}
}

func TestRegistry_UnknownSession(t *testing.T) {
	r := NewRegistry(&scriptedModel{})
	err := r.With("missing", func(*Session) error { return nil })
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	require.ErrorIs(t, r.Remove("missing"), domain.ErrSessionNotFound)
	_, err = r.Get("missing")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	require.ErrorIs(t, r.Finish("missing", func(*Session) error { return nil }), domain.ErrSessionNotFound)
}

func TestRegistry_FinishRemovesOnlyOnSuccess(t *testing.T) {
	r := NewRegistry(&scriptedModel{})
	id, _, err := r.Create(context.Background(), "p")
	require.NoError(t, err)

	err = r.Finish(id, func(*Session) error { return domain.ErrSummarizationFailed })
	require.ErrorIs(t, err, domain.ErrSummarizationFailed)
	require.Equal(t, 1, r.Len())

	require.NoError(t, r.Finish(id, func(*Session) error { return nil }))
	require.Equal(t, 0, r.Len())
	require.ErrorIs(t, r.With(id, func(*Session) error { return nil }), domain.ErrSessionNotFound)
}

// serialModel fails the test if two calls overlap.
type serialModel struct {
	inflight atomic.Int32
	overlap  atomic.Bool
}

func (m *serialModel) Complete(_ context.Context, _ domain.Transcript) (domain.Turn, error) {
	if m.inflight.Add(1) > 1 {
		m.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
	m.inflight.Add(-1)
	return domain.Turn{Role: domain.RoleAssistant, Content: "ok"}, nil
}

func TestRegistry_SerializesOperationsOnOneSession(t *testing.T) {
	m := &serialModel{}
	r := NewRegistry(m)
	id, _, err := r.Create(context.Background(), "p")
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.With(id, func(s *Session) error {
				_, err := s.Advance(context.Background(), "answer")
				return err
			})
		}()
	}
	wg.Wait()
	require.False(t, m.overlap.Load(), "advances on one session overlapped")

	_ = r.With(id, func(s *Session) error {
		tr := s.Transcript()
		require.Len(t, tr, 3+2*n)
		for i := 3; i < len(tr); i += 2 {
			require.Equal(t, domain.RoleUser, tr[i].Role)
			require.Equal(t, domain.RoleAssistant, tr[i+1].Role)
		}
		return nil
	})
}

// barrierModel blocks each call until `need` calls are in flight at once.
type barrierModel struct {
	need    int32
	arrived atomic.Int32
	release chan struct{}
	once    sync.Once
}

func (m *barrierModel) Complete(ctx context.Context, _ domain.Transcript) (domain.Turn, error) {
	if m.arrived.Add(1) >= m.need {
		m.once.Do(func() { close(m.release) })
	}
	select {
	case <-m.release:
		return domain.Turn{Role: domain.RoleAssistant, Content: "ok"}, nil
	case <-time.After(2 * time.Second):
		return domain.Turn{}, errors.New("calls did not overlap")
	case <-ctx.Done():
		return domain.Turn{}, ctx.Err()
	}
}

func TestRegistry_DifferentSessionsRunInParallel(t *testing.T) {
	plain := &scriptedModel{}
	r := NewRegistry(plain)
	idA, _, err := r.Create(context.Background(), "a")
	require.NoError(t, err)
	idB, _, err := r.Create(context.Background(), "b")
	require.NoError(t, err)

	bm := &barrierModel{need: 2, release: make(chan struct{})}
	for _, id := range []string{idA, idB} {
		require.NoError(t, r.With(id, func(s *Session) error { s.model = bm; return nil }))
	}

	errs := make(chan error, 2)
	for _, id := range []string{idA, idB} {
		go func(id string) {
			errs <- r.With(id, func(s *Session) error {
				_, err := s.Advance(context.Background(), "hi")
				return err
			})
		}(id)
	}
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
}

func TestRegistry_EvictIdle(t *testing.T) {
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	r := NewRegistry(&scriptedModel{})
	r.now = func() time.Time { mu.Lock(); defer mu.Unlock(); return clock }
	advance := func(d time.Duration) { mu.Lock(); clock = clock.Add(d); mu.Unlock() }

	idle, _, err := r.Create(context.Background(), "idle")
	require.NoError(t, err)
	busy, _, err := r.Create(context.Background(), "busy")
	require.NoError(t, err)

	advance(20 * time.Minute)
	require.NoError(t, r.With(busy, func(s *Session) error {
		_, err := s.Advance(context.Background(), "still here")
		return err
	}))
	advance(15 * time.Minute)

	evicted := r.EvictIdle(r.now().Add(-30 * time.Minute))
	require.Equal(t, []string{idle}, evicted)
	require.Equal(t, 1, r.Len())
	require.ErrorIs(t, r.With(idle, func(*Session) error { return nil }), domain.ErrSessionNotFound)
	require.NoError(t, r.With(busy, func(*Session) error { return nil }))
}

func TestRegistry_EvictIdleSkipsLockedSessions(t *testing.T) {
	r := NewRegistry(&scriptedModel{})
	id, _, err := r.Create(context.Background(), "p")
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- r.With(id, func(*Session) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	evicted := r.EvictIdle(time.Now().Add(time.Hour))
	assert.Empty(t, evicted)
	close(release)
	require.NoError(t, <-done)

	evicted = r.EvictIdle(time.Now().Add(time.Hour))
	assert.Equal(t, []string{id}, evicted)
}

package speech

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink_WritesOrderedFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool")
	s, err := NewFileSink(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	ctx := context.Background()
	require.NoError(t, s.Play(ctx, []byte("first")))
	require.NoError(t, s.Play(ctx, []byte("second")))
	require.NoError(t, s.Play(ctx, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var got []string
	for _, e := range entries {
		assert.True(t, strings.HasSuffix(e.Name(), ".mp3"))
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		got = append(got, string(b))
	}
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestFileSink_GivesUpWhenDirVanishes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool")
	s, err := NewFileSink(dir)
	require.NoError(t, err)
	s.bo = func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2) }
	require.NoError(t, os.RemoveAll(dir))

	err = s.Play(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=speech.play")
}

func TestFileSink_CancelledContext(t *testing.T) {
	s, err := NewFileSink(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Play(ctx, []byte("x")), context.Canceled)
}

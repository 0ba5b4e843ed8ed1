// Package speech holds AudioSink implementations.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
)

// FileSink "plays" audio by writing each clip to a spool directory, where an
// external player or the web UI can pick it up. File names are ULIDs so a
// directory listing is in playback order.
type FileSink struct {
	dir string
	ext string
	bo  func() backoff.BackOff
}

// NewFileSink creates dir if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("op=speech.new_file_sink: %w", err)
	}
	return &FileSink{
		dir: dir,
		ext: ".mp3",
		bo: func() backoff.BackOff {
			expo := backoff.NewExponentialBackOff()
			expo.InitialInterval = 50 * time.Millisecond
			expo.MaxElapsedTime = 2 * time.Second
			return expo
		},
	}, nil
}

// Dir returns the spool directory.
func (s *FileSink) Dir() string { return s.dir }

// Play writes audio atomically (temp file + rename), retrying transient failures.
func (s *FileSink) Play(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return nil
	}
	name := filepath.Join(s.dir, ulid.Make().String()+s.ext)
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		return writeAtomic(name, audio)
	}
	if err := backoff.Retry(op, backoff.WithContext(s.bo(), ctx)); err != nil {
		return fmt.Errorf("op=speech.play: %w", err)
	}
	slog.Debug("audio spooled", slog.String("file", name), slog.Int("bytes", len(audio)))
	return nil
}

func writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".spool-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}

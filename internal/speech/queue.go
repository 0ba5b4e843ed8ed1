// Package speech serializes background text-to-speech playback.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// Job is one utterance waiting to be spoken.
type Job struct {
	ID    string
	Text  string
	Voice string
}

// Queue is a bounded FIFO with exactly one consumer. Jobs are synthesized and
// played one at a time in enqueue order.
type Queue struct {
	mu     sync.RWMutex
	closed bool
	jobs   chan Job

	synth domain.SpeechSynthesizer
	sink  domain.AudioSink
	// jobTimeout bounds synthesis plus playback of one job.
	jobTimeout time.Duration

	// jobCtx is cancelled when Shutdown gives up waiting; pending jobs are then dropped.
	jobCtx  context.Context
	abandon context.CancelFunc
	done    chan struct{}
}

// DefaultJobTimeout applies when NewQueue is given a non-positive timeout.
const DefaultJobTimeout = time.Minute

// NewQueue returns a queue holding at most size pending jobs. Each job gets
// jobTimeout to synthesize and play before it is failed and the next runs.
func NewQueue(size int, synth domain.SpeechSynthesizer, sink domain.AudioSink, jobTimeout time.Duration) *Queue {
	if size <= 0 {
		size = 1
	}
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}
	jobCtx, cancel := context.WithCancel(context.Background())
	return &Queue{
		jobs:       make(chan Job, size),
		synth:      synth,
		sink:       sink,
		jobTimeout: jobTimeout,
		jobCtx:     jobCtx,
		abandon:    cancel,
		done:       make(chan struct{}),
	}
}

// Enqueue adds a job without blocking and returns its id.
func (q *Queue) Enqueue(text, voice string) (string, error) {
	if domain.IsBlank(text) {
		return "", fmt.Errorf("op=speech.enqueue: %w: text is required", domain.ErrInvalidArgument)
	}
	job := Job{ID: ulid.Make().String(), Text: text, Voice: voice}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return "", fmt.Errorf("op=speech.enqueue: %w", domain.ErrQueueClosed)
	}
	select {
	case q.jobs <- job:
		return job.ID, nil
	default:
		return "", fmt.Errorf("op=speech.enqueue: %w", domain.ErrQueueFull)
	}
}

// Len returns the number of jobs waiting.
func (q *Queue) Len() int { return len(q.jobs) }

// Run consumes jobs until the queue is drained after intake stops. Cancelling
// ctx stops intake; jobs already queued are still played unless Shutdown
// abandons them.
func (q *Queue) Run(ctx context.Context) error {
	defer close(q.done)
	stop := ctx.Done()
	for {
		select {
		case <-stop:
			q.closeIntake()
			stop = nil
		case job, ok := <-q.jobs:
			if !ok {
				return nil
			}
			q.process(job)
		}
	}
}

// Shutdown stops intake and waits for pending jobs to finish. When ctx
// expires first the remaining jobs are abandoned and ctx's error is returned.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.closeIntake()
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		q.abandon()
		return fmt.Errorf("op=speech.shutdown: %w", ctx.Err())
	}
}

func (q *Queue) closeIntake() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
}

func (q *Queue) process(job Job) {
	lg := slog.With(slog.String("job_id", job.ID))
	if q.jobCtx.Err() != nil {
		observability.SpeechJobDone("abandoned")
		lg.Warn("speech job abandoned")
		return
	}
	ctx, cancel := context.WithTimeout(q.jobCtx, q.jobTimeout)
	defer cancel()
	audio, err := q.synth.Synthesize(ctx, job.Text, job.Voice)
	if err == nil {
		err = q.sink.Play(ctx, audio)
	}
	switch {
	case err == nil:
		observability.SpeechJobDone("ok")
		lg.Debug("speech job played", slog.Int("bytes", len(audio)))
	case errors.Is(err, context.Canceled):
		observability.SpeechJobDone("abandoned")
		lg.Warn("speech job abandoned", slog.Any("error", err))
	default:
		observability.SpeechJobDone("failed")
		lg.Error("speech job failed", slog.Any("error", err))
	}
}

// Package ai holds the provider-neutral plumbing around model backends:
// per-call timeouts, the circuit breaker, metrics and token accounting.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-tutor/internal/observability"
)

// Backend is a model provider able to continue a transcript and answer
// one-shot prompts.
type Backend interface {
	domain.LanguageModelClient
	domain.TextGenerator
}

// GuardOptions configures a Guard.
type GuardOptions struct {
	// Provider labels metrics, logs and spans.
	Provider string
	// Model is used for token estimates.
	Model string
	// Timeout bounds every call; zero disables it.
	Timeout          time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
	// Counter enables token accounting when set.
	Counter *tokencount.Counter
}

// Guard decorates a Backend. Every failure, including a timeout or an open
// breaker, surfaces as domain.ErrModelUnavailable. Calls are never retried.
type Guard struct {
	backend Backend
	opts    GuardOptions
	breaker *CircuitBreaker
}

// NewGuard wraps backend.
func NewGuard(backend Backend, opts GuardOptions) *Guard {
	if opts.Provider == "" {
		opts.Provider = "unknown"
	}
	return &Guard{
		backend: backend,
		opts:    opts,
		breaker: NewCircuitBreaker(opts.Provider, opts.BreakerThreshold, opts.BreakerCooldown),
	}
}

// Breaker exposes the guard's circuit breaker for readiness reporting.
func (g *Guard) Breaker() *CircuitBreaker { return g.breaker }

// Complete continues the transcript through the backend.
func (g *Guard) Complete(ctx domain.Context, t domain.Transcript) (domain.Turn, error) {
	var out domain.Turn
	err := g.call(ctx, "complete", func(ctx context.Context) error {
		var err error
		out, err = g.backend.Complete(ctx, t)
		return err
	})
	if err != nil {
		return domain.Turn{}, err
	}
	if g.opts.Counter != nil {
		observability.AddAITokens(g.opts.Provider, "prompt", g.opts.Counter.EstimateTranscript(t, g.opts.Model))
		observability.AddAITokens(g.opts.Provider, "completion", g.opts.Counter.Estimate(out.Content, g.opts.Model))
	}
	return out, nil
}

// Generate answers a one-shot prompt through the backend.
func (g *Guard) Generate(ctx domain.Context, req domain.GenerateRequest) (string, error) {
	var out string
	err := g.call(ctx, "generate", func(ctx context.Context) error {
		var err error
		out, err = g.backend.Generate(ctx, req)
		return err
	})
	if err != nil {
		return "", err
	}
	if g.opts.Counter != nil {
		observability.AddAITokens(g.opts.Provider, "prompt", g.opts.Counter.Estimate(req.System+req.Prompt, g.opts.Model))
		observability.AddAITokens(g.opts.Provider, "completion", g.opts.Counter.Estimate(out, g.opts.Model))
	}
	return out, nil
}

func (g *Guard) call(ctx context.Context, op string, fn func(context.Context) error) error {
	tracer := otel.Tracer("ai.guard")
	ctx, span := tracer.Start(ctx, "ai."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", g.opts.Provider),
		attribute.String("ai.model", g.opts.Model),
	)
	lg := obsctx.LoggerFromContext(ctx)

	if !g.breaker.ShouldAttempt() {
		observability.ObserveAIRequest(g.opts.Provider, op, 0, "breaker_open")
		span.SetStatus(codes.Error, "circuit open")
		return fmt.Errorf("op=ai.%s: %w: circuit open for %s", op, domain.ErrModelUnavailable, g.opts.Provider)
	}

	callCtx := ctx
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(callCtx)
	dur := time.Since(start)
	if err == nil {
		g.breaker.RecordSuccess()
		observability.SetBreakerOpen(g.opts.Provider, false)
		observability.ObserveAIRequest(g.opts.Provider, op, dur, "")
		return nil
	}

	reason := "error"
	switch {
	case ctx.Err() != nil:
		// The caller went away; this says nothing about provider health.
		reason = "canceled"
		err = fmt.Errorf("%w: %v", domain.ErrModelUnavailable, ctx.Err())
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		reason = "timeout"
		err = fmt.Errorf("%w: no response within %s", domain.ErrModelUnavailable, g.opts.Timeout)
	case !errors.Is(err, domain.ErrModelUnavailable):
		err = fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	if reason != "canceled" {
		g.breaker.RecordFailure()
		observability.SetBreakerOpen(g.opts.Provider, g.breaker.GetState() == CircuitOpen)
	}
	observability.ObserveAIRequest(g.opts.Provider, op, dur, reason)
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	lg.Warn("model call failed",
		slog.String("provider", g.opts.Provider),
		slog.String("op", op),
		slog.String("reason", reason),
		slog.Duration("duration", dur),
		slog.Any("error", err))
	return fmt.Errorf("op=ai.%s: %w", op, err)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	ai "github.com/fairyhunter13/ai-interview-tutor/internal/adapter/ai"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/ai/gemini"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/ai/openai"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/ai/stub"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/repo/memory"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/repo/redisstore"
	"github.com/fairyhunter13/ai-interview-tutor/internal/config"
	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// modelParams selects one model role (chat, detector, summary).
type modelParams struct {
	provider  string
	model     string
	temp      float32
	topP      float32
	maxTokens int
}

func newBackend(cfg config.Config, p modelParams) (ai.Backend, error) {
	switch strings.ToLower(p.provider) {
	case "openai":
		return openai.New(openai.Options{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       p.model,
			Temperature: p.temp,
			TopP:        p.topP,
			MaxTokens:   p.maxTokens,
		}), nil
	case "gemini":
		model := p.model
		if strings.HasPrefix(model, "gpt-") {
			model = cfg.GeminiModel
		}
		return gemini.New(gemini.Options{
			APIKey:      cfg.GeminiAPIKey,
			BaseURL:     cfg.GeminiBaseURL,
			Model:       model,
			Temperature: p.temp,
			TopP:        p.topP,
			MaxTokens:   p.maxTokens,
		}), nil
	case "stub":
		return stub.New(), nil
	default:
		return nil, fmt.Errorf("op=main.new_backend: unknown provider %q", p.provider)
	}
}

// newGuarded builds the backend for p behind a timeout and circuit breaker.
func newGuarded(cfg config.Config, p modelParams, counter *tokencount.Counter) (*ai.Guard, error) {
	b, err := newBackend(cfg, p)
	if err != nil {
		return nil, err
	}
	return ai.NewGuard(b, ai.GuardOptions{
		Provider:         strings.ToLower(p.provider),
		Model:            p.model,
		Timeout:          cfg.AICallTimeout,
		BreakerThreshold: cfg.AIBreakerThreshold,
		BreakerCooldown:  cfg.AIBreakerCooldown,
		Counter:          counter,
	}), nil
}

type speechBackend interface {
	domain.SpeechSynthesizer
	domain.Transcriber
}

// newSpeechBackend returns the TTS/STT provider. Only OpenAI offers speech;
// the stub is used when the whole app runs against stubs.
func newSpeechBackend(cfg config.Config) speechBackend {
	if strings.EqualFold(cfg.AIProvider, "stub") {
		return stub.New()
	}
	return openai.New(openai.Options{
		APIKey:   cfg.OpenAIAPIKey,
		BaseURL:  cfg.OpenAIBaseURL,
		TTSModel: cfg.TTSModel,
		TTSVoice: cfg.TTSVoice,
		STTModel: cfg.STTModel,
	})
}

// stores bundles the persistence chosen by PROGRESS_STORE.
type stores struct {
	progress domain.ProgressStore
	history  domain.ChatHistoryStore
	pool     *pgxpool.Pool
	redis    *redis.Client
}

func (s stores) close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

func newStores(ctx context.Context, cfg config.Config) (stores, error) {
	switch strings.ToLower(cfg.ProgressStore) {
	case "", "memory":
		return stores{progress: memory.NewProgressStore(), history: memory.NewHistoryStore()}, nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return stores{}, fmt.Errorf("op=main.new_stores: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := retryStartup(ctx, cfg, "redis", func() error { return rdb.Ping(ctx).Err() }); err != nil {
			_ = rdb.Close()
			return stores{}, err
		}
		return stores{
			progress: redisstore.NewProgressStore(rdb, "tutor:"),
			history:  redisstore.NewHistoryStore(rdb, "tutor:"),
			redis:    rdb,
		}, nil
	case "postgres":
		var pool *pgxpool.Pool
		err := retryStartup(ctx, cfg, "postgres", func() error {
			p, err := postgres.NewPool(ctx, cfg.DBURL)
			if err != nil {
				return err
			}
			if err := p.Ping(ctx); err != nil {
				p.Close()
				return err
			}
			pool = p
			return nil
		})
		if err != nil {
			return stores{}, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return stores{}, err
		}
		return stores{
			progress: postgres.NewProgressRepo(pool),
			history:  postgres.NewHistoryRepo(pool),
			pool:     pool,
		}, nil
	default:
		return stores{}, fmt.Errorf("op=main.new_stores: unknown store %q", cfg.ProgressStore)
	}
}

// retryStartup retries connect with exponential backoff until the startup
// budget is spent.
func retryStartup(ctx context.Context, cfg config.Config, name string, connect func() error) error {
	maxElapsed, initial, maxInterval := cfg.GetStartupBackoffConfig()
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = initial
	expo.MaxInterval = maxInterval
	expo.MaxElapsedTime = maxElapsed
	attempt := 0
	op := func() error {
		attempt++
		if err := connect(); err != nil {
			slog.Warn("dependency not ready", slog.String("dependency", name), slog.Int("attempt", attempt), slog.Any("error", err))
			return err
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		return fmt.Errorf("op=main.connect %s: %w", name, err)
	}
	slog.Info("dependency connected", slog.String("dependency", name))
	return nil
}

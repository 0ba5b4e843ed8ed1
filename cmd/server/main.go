// Command server starts the AI interview tutor HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/catalog"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/events/redpanda"
	httpserver "github.com/fairyhunter13/ai-interview-tutor/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/prompts"
	speechsink "github.com/fairyhunter13/ai-interview-tutor/internal/adapter/speech"
	"github.com/fairyhunter13/ai-interview-tutor/internal/app"
	"github.com/fairyhunter13/ai-interview-tutor/internal/config"
	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
	"github.com/fairyhunter13/ai-interview-tutor/internal/interview"
	"github.com/fairyhunter13/ai-interview-tutor/internal/speech"
	"github.com/fairyhunter13/ai-interview-tutor/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Models
	counter := tokencount.NewCounter()
	chat, err := newGuarded(cfg, modelParams{cfg.AIProvider, cfg.ChatModel, cfg.ChatTemp, cfg.ChatTopP, cfg.ChatMaxTokens}, counter)
	if err != nil {
		return err
	}
	detectorModel, err := newGuarded(cfg, modelParams{cfg.AIProvider, cfg.DetectorModel, cfg.DetectorTemp, 1, cfg.DetectorMaxTokens}, counter)
	if err != nil {
		return err
	}
	summaryModel, err := newGuarded(cfg, modelParams{cfg.SummaryBackend(), cfg.SummaryModel, cfg.ChatTemp, cfg.ChatTopP, cfg.SummaryMaxTokens}, counter)
	if err != nil {
		return err
	}
	slog.Info("model clients initialized",
		slog.String("provider", cfg.AIProvider),
		slog.String("chat_model", cfg.ChatModel),
		slog.String("summary_provider", cfg.SummaryBackend()))

	// Persistence
	st, err := newStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	// Events
	var events domain.EventPublisher = redpanda.Nop{}
	if cfg.EventsEnabled() {
		pub, err := redpanda.NewPublisher(ctx, cfg.KafkaBrokers, cfg.EventsTopic)
		if err != nil {
			return err
		}
		defer pub.Close()
		events = pub
	}

	// Content
	questions, err := catalog.LoadFile(cfg.QuestionsFile)
	if err != nil {
		return err
	}
	library := prompts.NewStore(cfg.PersonasDir, cfg.CriteriaDir)

	// Speech
	sink, err := speechsink.NewFileSink(cfg.SpeechSpoolDir)
	if err != nil {
		return err
	}
	voice := newSpeechBackend(cfg)
	queue := speech.NewQueue(cfg.SpeechQueueSize, voice, sink, cfg.AICallTimeout)

	// Usecases
	interviews := usecase.NewInterviewService(
		interview.NewRegistry(chat),
		interview.NewCompletionDetector(detectorModel, cfg.DetectorMaxTokens, cfg.DetectorTemp),
		interview.NewSummarizer(summaryModel, cfg.SummaryMaxTokens),
		library,
		events,
	)
	interviews.PublishTimeout = cfg.EventsPublishTimeout
	quizzes := usecase.NewQuizService(questions, st.progress)
	tutor := usecase.NewTutorService(chat, chat, st.history, cfg.TutorHistorySize, cfg.ChatMaxTokens)
	speeches := usecase.NewSpeechService(voice, voice, queue)

	var pinger app.Pinger
	if st.pool != nil {
		pinger = st.pool
	}
	var rdb app.RedisClient
	if st.redis != nil {
		rdb = st.redis
	}
	srv := httpserver.NewServer(cfg, interviews, quizzes, tutor, speeches, app.BuildReadinessChecks(pinger, rdb)...)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweeper := app.NewSessionSweeper(interviews, cfg.SessionIdleTimeout, cfg.SessionSweepInterval)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		if err := srvHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("op=main.listen: %w", err)
		}
		return nil
	})
	eg.Go(func() error { return sweeper.Run(egCtx) })
	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
		defer cancel()
		if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown failed", slog.Any("error", err))
		}
		if err := queue.Shutdown(shutdownCtx); err != nil {
			slog.Warn("speech queue abandoned pending jobs", slog.Any("error", err))
		}
		return nil
	})
	go func() { _ = queue.Run(egCtx) }()

	return eg.Wait()
}

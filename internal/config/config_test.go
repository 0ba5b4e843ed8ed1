package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load err: %v", err)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected IsDev true")
	}
	if cfg.IsProd() {
		t.Fatalf("expected IsProd false")
	}
	require.Equal(t, "openai", cfg.AIProvider)
	require.Equal(t, float32(0.1), cfg.DetectorTemp)
	require.Equal(t, 5, cfg.DetectorMaxTokens)
	require.Equal(t, 4096, cfg.ChatMaxTokens)
	require.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	require.False(t, cfg.EventsEnabled())
	require.Equal(t, 2*time.Second, cfg.EventsPublishTimeout)
	require.Equal(t, "openai", cfg.SummaryBackend())
}

func Test_Load_Overrides(t *testing.T) {
	t.Setenv("AI_PROVIDER", "gemini")
	t.Setenv("SUMMARY_PROVIDER", "openai")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("PROGRESS_STORE", "redis")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.SummaryBackend())
	require.True(t, cfg.EventsEnabled())
	require.Len(t, cfg.KafkaBrokers, 2)
	require.Equal(t, "redis", cfg.ProgressStore)
}

func Test_Load_RejectsUnknownProviders(t *testing.T) {
	cases := map[string]string{
		"AI_PROVIDER":       "claude-direct",
		"SUMMARY_PROVIDER":  "nope",
		"PROGRESS_STORE":    "sqlite",
		"SPEECH_QUEUE_SIZE": "0",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			require.Error(t, err)
			require.Contains(t, err.Error(), "op=config.Load")
		})
	}
}

func Test_GetStartupBackoffConfig(t *testing.T) {
	cfg := Config{AppEnv: "test", StartupBackoffMaxElapsed: time.Minute}
	maxElapsed, initial, _ := cfg.GetStartupBackoffConfig()
	require.Equal(t, 2*time.Second, maxElapsed)
	require.Equal(t, 50*time.Millisecond, initial)

	cfg.AppEnv = "prod"
	maxElapsed, _, _ = cfg.GetStartupBackoffConfig()
	require.Equal(t, time.Minute, maxElapsed)
}

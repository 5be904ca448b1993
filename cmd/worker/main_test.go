package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argushq/argus/internal/config"
)

func TestRunRequiresCompletionKey(t *testing.T) {
	err := run(context.Background(), &config.Config{}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestRunReportsDatabaseErrors(t *testing.T) {
	cfg := &config.Config{DatabaseURL: "://not-a-url"}
	cfg.Completion.APIKey = "sk-test"

	err := run(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db connect")
}

// TestRunStopsOnCancel needs Postgres and Redis.
func TestRunStopsOnCancel(t *testing.T) {
	dbURL, redisAddr := os.Getenv("DATABASE_URL"), os.Getenv("REDIS_ADDR")
	if dbURL == "" || redisAddr == "" {
		t.Skip("DATABASE_URL or REDIS_ADDR not set, skipping worker run test")
	}
	cfg := &config.Config{DatabaseURL: dbURL, RedisAddr: redisAddr}
	cfg.Completion.APIKey = "sk-test"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, zerolog.Nop()) }()

	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

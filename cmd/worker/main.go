package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/argushq/argus/internal/completion"
	"github.com/argushq/argus/internal/config"
	"github.com/argushq/argus/internal/db"
	"github.com/argushq/argus/internal/jobs"
	"github.com/argushq/argus/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("worker stopped")
		os.Exit(1)
	}
}

// run serves title jobs until ctx is cancelled, then drains in-flight tasks.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if !cfg.HasCompletion() {
		return errors.New("OPENAI_API_KEY is required to run the worker")
	}
	cc, err := completion.New(cfg.Completion.APIKey,
		completion.WithBaseURL(cfg.Completion.BaseURL),
		completion.WithModel(cfg.Completion.Model),
	)
	if err != nil {
		return fmt.Errorf("completion client: %w", err)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()
	q := db.New(pool)

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			"default": 5,
		},
		Logger: asynqLogger{log},
	})
	mux := jobs.NewMux(&jobs.TitleHandler{Store: q, Completer: cc, Log: log})

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	log.Info().Str("redis", cfg.RedisAddr).Msg("worker running")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	srv.Shutdown()
	return nil
}

// asynqLogger routes asynq's own logging through zerolog.
type asynqLogger struct{ l zerolog.Logger }

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }

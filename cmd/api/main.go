// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/rs/zerolog"

	"github.com/argushq/argus/internal/chat"
	"github.com/argushq/argus/internal/completion"
	"github.com/argushq/argus/internal/config"
	"github.com/argushq/argus/internal/db"
	"github.com/argushq/argus/internal/email"
	"github.com/argushq/argus/internal/http/routes"
	"github.com/argushq/argus/internal/jobs"
	"github.com/argushq/argus/internal/lobby"
	"github.com/argushq/argus/internal/prompt"
	"github.com/argushq/argus/internal/storage"
	"github.com/argushq/argus/internal/threads"
	"github.com/argushq/argus/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}

	// Logger
	log := logger.New(cfg.LogLevel, cfg.LogPretty)
	log.Info().Str("port", cfg.Port).Msg("starting app")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("db schema")
	}
	queries := db.New(pool)

	// Sessions
	sess := scs.New()
	sess.Lifetime = 12 * time.Hour
	sess.Cookie.HttpOnly = true
	sess.Cookie.SameSite = http.SameSiteLaxMode
	sess.Cookie.Secure = cfg.SecureCookies

	tmpl, err := routes.ParseTemplates("web/templates/*.tmpl")
	if err != nil {
		log.Fatal().Err(err).Msg("parse templates")
	}

	// Lobby threads
	var threadSvc *threads.Service
	if cfg.HasLobby() {
		lc, err := lobby.New(cfg.LobbyToken(),
			lobby.WithBaseURL(cfg.Lobby.BaseURL),
			lobby.WithVersion(cfg.Lobby.Version),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("lobby client")
		}
		threadSvc = threads.NewService(lc, threads.NewCache(cfg.Lobby.CacheTTL),
			threads.WithLogger(log.With().Str("component", "threads").Logger()))
	} else {
		log.Warn().Msg("THELOBBY_API_KEY not set, emails disabled")
	}

	// Assistant
	titles := jobs.NewClient(cfg.RedisAddr)
	defer titles.Close() //nolint:errcheck
	chatSvc := &chat.Service{
		Store:  queries,
		Titles: titles,
		Prompt: prompt.NewGenerator(cfg, log),
		Model:  cfg.Completion.Model,
		Log:    log.With().Str("component", "chat").Logger(),
	}
	if cfg.HasCompletion() {
		cc, err := completion.New(cfg.Completion.APIKey,
			completion.WithBaseURL(cfg.Completion.BaseURL),
			completion.WithModel(cfg.Completion.Model),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("completion client")
		}
		chatSvc.Completer = cc
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, chat disabled")
	}

	// Uploads
	var uploader storage.Uploader
	if cfg.HasS3() {
		up, err := storage.NewS3Uploader(ctx, cfg.S3.Bucket, cfg.S3.Region)
		if err != nil {
			log.Fatal().Err(err).Msg("s3 uploader")
		}
		uploader = up
	}

	// Mail sender, stdout unless SMTP_ADDR is set
	var sender email.Sender = email.StdoutSender{Log: log}
	if cfg.HasSMTP() {
		sender = email.NewSMTPSender(cfg.SMTP.Addr, cfg.SMTP.From)
	}

	s := routes.New(routes.ServerOptions{
		Sess:     sess,
		Tmpl:     tmpl,
		Q:        queries,
		Threads:  threadSvc,
		Chat:     chatSvc,
		Uploader: uploader,
		Email:    sender,
		Cfg:      cfg,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	if threadSvc != nil {
		threadSvc.Wait()
	}
}

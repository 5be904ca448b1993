// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/argushq/argus/internal/prompt"
)

// Config holds all application configuration
type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	BaseURL       string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	SessionSecret string `env:"SESSION_SECRET,required"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty     bool   `env:"LOG_PRETTY"`
	SecureCookies bool   `env:"SECURE_COOKIES"`

	Lobby      LobbyConfig
	Completion CompletionConfig
	Google     GoogleConfig
	S3         S3Config
	SMTP       SMTPConfig
}

// LobbyConfig holds the Lobby data API settings. Either token variable works.
type LobbyConfig struct {
	APIKey      string        `env:"THELOBBY_API_KEY"`
	BearerToken string        `env:"LOBBY_BEARER_TOKEN"`
	Version     string        `env:"THELOBBY_VERSION" envDefault:"version-test/"`
	BaseURL     string        `env:"THELOBBY_BASE_URL" envDefault:"https://thelobby.ai"`
	CacheTTL    time.Duration `env:"THREADS_CACHE_TTL" envDefault:"60s"`
}

type CompletionConfig struct {
	APIKey     string `env:"OPENAI_API_KEY"`
	BaseURL    string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	Model      string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	PromptPath string `env:"ASSISTANT_PROMPT_PATH"`
}

type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
}

type S3Config struct {
	Region string `env:"AWS_REGION" envDefault:"us-east-1"`
	Bucket string `env:"AWS_S3_BUCKET_NAME"`
}

type SMTPConfig struct {
	Addr string `env:"SMTP_ADDR"`
	From string `env:"SMTP_FROM" envDefault:"no-reply@argus.local"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Lobby.CacheTTL <= 0 {
		return nil, fmt.Errorf("THREADS_CACHE_TTL must be positive, got %s", cfg.Lobby.CacheTTL)
	}
	return cfg, nil
}

// LobbyToken returns THELOBBY_API_KEY, falling back to LOBBY_BEARER_TOKEN.
func (c *Config) LobbyToken() string {
	if c.Lobby.APIKey != "" {
		return c.Lobby.APIKey
	}
	return c.Lobby.BearerToken
}

// HasLobby returns true if a Lobby token is configured
func (c *Config) HasLobby() bool {
	return c.LobbyToken() != ""
}

// HasCompletion returns true if the completion API key is set
func (c *Config) HasCompletion() bool {
	return c.Completion.APIKey != ""
}

// HasGoogle returns true if Google OAuth configuration is complete
func (c *Config) HasGoogle() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}

func (c *Config) HasS3() bool {
	return c.S3.Bucket != ""
}

func (c *Config) HasSMTP() bool {
	return c.SMTP.Addr != ""
}

// AssistantPrompt returns the custom system prompt if ASSISTANT_PROMPT_PATH is set,
// otherwise the default one.
func (c *Config) AssistantPrompt() (string, error) {
	if c.Completion.PromptPath == "" {
		return prompt.GetDefault(), nil
	}
	b, err := os.ReadFile(c.Completion.PromptPath)
	if err != nil {
		return "", fmt.Errorf("failed to read assistant prompt from %s: %w", c.Completion.PromptPath, err)
	}
	return string(b), nil
}

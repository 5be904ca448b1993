package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/argushq/argus/internal/prompt"
)

// setRequired sets the variables Load refuses to run without.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/argus_test")
	t.Setenv("SESSION_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{"PORT", "THELOBBY_API_KEY", "LOBBY_BEARER_TOKEN", "THELOBBY_VERSION", "THREADS_CACHE_TTL", "OPENAI_MODEL", "AWS_REGION", "AWS_S3_BUCKET_NAME"} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected Port '8080', got '%s'", cfg.Port)
	}
	if cfg.Lobby.Version != "version-test/" {
		t.Errorf("Expected Lobby version 'version-test/', got '%s'", cfg.Lobby.Version)
	}
	if cfg.Lobby.CacheTTL != 60*time.Second {
		t.Errorf("Expected cache TTL 60s, got %s", cfg.Lobby.CacheTTL)
	}
	if cfg.Completion.Model != "gpt-4o-mini" {
		t.Errorf("Expected model 'gpt-4o-mini', got '%s'", cfg.Completion.Model)
	}
	if cfg.S3.Region != "us-east-1" {
		t.Errorf("Expected region 'us-east-1', got '%s'", cfg.S3.Region)
	}
	if cfg.HasLobby() || cfg.HasS3() {
		t.Error("Lobby and S3 should not be configured")
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("SESSION_SECRET", "x")
	t.Setenv("DATABASE_URL", "")
	_ = os.Unsetenv("DATABASE_URL")

	if _, err := Load(); err == nil {
		t.Error("Expected error when DATABASE_URL is missing")
	}
}

func TestLoadInvalidTTL(t *testing.T) {
	setRequired(t)

	t.Setenv("THREADS_CACHE_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Error("Expected error for unparseable THREADS_CACHE_TTL")
	}

	t.Setenv("THREADS_CACHE_TTL", "-5s")
	if _, err := Load(); err == nil {
		t.Error("Expected error for negative THREADS_CACHE_TTL")
	}
}

func TestLobbyToken(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		bearer string
		want   string
	}{
		{"api key wins", "key", "bearer", "key"},
		{"bearer fallback", "", "bearer", "bearer"},
		{"none", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Lobby: LobbyConfig{APIKey: tt.apiKey, BearerToken: tt.bearer}}
			if got := cfg.LobbyToken(); got != tt.want {
				t.Errorf("LobbyToken() = %q, want %q", got, tt.want)
			}
			if cfg.HasLobby() != (tt.want != "") {
				t.Errorf("HasLobby() = %v", cfg.HasLobby())
			}
		})
	}
}

func TestAssistantPrompt(t *testing.T) {
	cfg := &Config{}
	got, err := cfg.AssistantPrompt()
	if err != nil || got != prompt.GetDefault() {
		t.Errorf("Expected default prompt, got %q (err %v)", got, err)
	}

	path := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(path, []byte("Answer like a pirate."), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg.Completion.PromptPath = path
	got, err = cfg.AssistantPrompt()
	if err != nil || got != "Answer like a pirate." {
		t.Errorf("Expected custom prompt, got %q (err %v)", got, err)
	}

	cfg.Completion.PromptPath = filepath.Join(t.TempDir(), "missing.txt")
	if _, err := cfg.AssistantPrompt(); err == nil {
		t.Error("Expected error for missing prompt file")
	}
}

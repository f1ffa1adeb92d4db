// Package config loads and validates the application's configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/codacore/review-agent/internal/logger"
)

// Config holds the application's configuration values. Everything the
// orchestrator needs is passed in explicitly at construction; there are no
// ambient globals.
type Config struct {
	Server  ServerConfig
	GitHub  GitHubConfig
	LLM     LLMConfig
	Review  ReviewConfig
	Logging logger.Config

	MaxWorkers int
}

// ServerConfig configures the webhook server mode.
type ServerConfig struct {
	Port          string
	WebhookSecret string
}

// GitHubConfig selects between token and GitHub App installation auth.
// A personal access token takes precedence when both are present.
type GitHubConfig struct {
	Token          string
	AppID          int64
	PrivateKeyPath string
}

// LLMConfig configures the completion API. An empty APIKey is not a load
// error: its absence is reported as a policy rejection at the point a review
// is actually needed.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ReviewConfig carries the orchestration knobs: the trigger phrase, the
// working directory for checkouts, optional stages, and the character budgets
// that bound every piece of text forwarded to the model or posted back.
type ReviewConfig struct {
	Trigger             string
	Workdir             string
	RunTests            bool
	CollectFileContents bool
	DiffContextLines    int

	MaxFileChars       int
	MaxDiffChars       int
	MaxTestOutputChars int
	MaxCommentChars    int
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_OUTPUT", "stderr")
	v.SetDefault("MAX_WORKERS", 5)

	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o")

	v.SetDefault("REVIEW_TRIGGER", "@review-agent")
	v.SetDefault("REVIEW_WORKDIR", filepath.Join(os.TempDir(), "review-agent"))
	v.SetDefault("REVIEW_RUN_TESTS", true)
	v.SetDefault("REVIEW_COLLECT_FILE_CONTENTS", true)
	v.SetDefault("REVIEW_DIFF_CONTEXT_LINES", 3)
	v.SetDefault("REVIEW_MAX_FILE_CHARS", 12000)
	v.SetDefault("REVIEW_MAX_DIFF_CHARS", 50000)
	v.SetDefault("REVIEW_MAX_TEST_OUTPUT_CHARS", 10000)
	v.SetDefault("REVIEW_MAX_COMMENT_CHARS", 60000)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if _, statErr := os.Stat(".env"); statErr == nil {
				return nil, fmt.Errorf("failed to read .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:          v.GetString("SERVER_PORT"),
			WebhookSecret: v.GetString("GITHUB_WEBHOOK_SECRET"),
		},
		GitHub: GitHubConfig{
			Token:          v.GetString("GITHUB_TOKEN"),
			AppID:          v.GetInt64("GITHUB_APP_ID"),
			PrivateKeyPath: v.GetString("GITHUB_PRIVATE_KEY_PATH"),
		},
		LLM: LLMConfig{
			APIKey:  v.GetString("OPENAI_API_KEY"),
			BaseURL: v.GetString("OPENAI_BASE_URL"),
			Model:   v.GetString("OPENAI_MODEL"),
		},
		Review: ReviewConfig{
			Trigger:             v.GetString("REVIEW_TRIGGER"),
			Workdir:             v.GetString("REVIEW_WORKDIR"),
			RunTests:            v.GetBool("REVIEW_RUN_TESTS"),
			CollectFileContents: v.GetBool("REVIEW_COLLECT_FILE_CONTENTS"),
			DiffContextLines:    v.GetInt("REVIEW_DIFF_CONTEXT_LINES"),
			MaxFileChars:        v.GetInt("REVIEW_MAX_FILE_CHARS"),
			MaxDiffChars:        v.GetInt("REVIEW_MAX_DIFF_CHARS"),
			MaxTestOutputChars:  v.GetInt("REVIEW_MAX_TEST_OUTPUT_CHARS"),
			MaxCommentChars:     v.GetInt("REVIEW_MAX_COMMENT_CHARS"),
		},
		Logging: logger.Config{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
		},
		MaxWorkers: v.GetInt("MAX_WORKERS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields every mode needs. Mode-specific requirements
// (webhook secret for the server) are checked where that mode starts.
func (c *Config) Validate() error {
	if !c.GitHub.HasCredentials() {
		return fmt.Errorf("GitHub credentials missing: set GITHUB_TOKEN, or GITHUB_APP_ID and GITHUB_PRIVATE_KEY_PATH")
	}
	if c.GitHub.Token == "" && c.GitHub.AppID != 0 && c.GitHub.PrivateKeyPath == "" {
		return fmt.Errorf("GITHUB_PRIVATE_KEY_PATH must be set when GITHUB_APP_ID is used")
	}
	if c.Review.Trigger == "" {
		return fmt.Errorf("REVIEW_TRIGGER must not be empty")
	}
	if c.Review.Workdir == "" {
		return fmt.Errorf("REVIEW_WORKDIR must not be empty")
	}
	if c.Review.DiffContextLines < 0 {
		return fmt.Errorf("REVIEW_DIFF_CONTEXT_LINES must not be negative")
	}
	return nil
}

// ValidateServer checks the additional fields required by webhook server mode.
func (c *Config) ValidateServer() error {
	if c.Server.WebhookSecret == "" {
		return fmt.Errorf("GITHUB_WEBHOOK_SECRET must be set to run the webhook server")
	}
	return nil
}

// HasCredentials reports whether any GitHub authentication is configured.
func (g *GitHubConfig) HasCredentials() bool {
	return g.Token != "" || g.AppID != 0
}

// UsesApp reports whether GitHub App installation auth should be used.
func (g *GitHubConfig) UsesApp() bool {
	return g.Token == "" && g.AppID != 0
}

// LogLevel parses the configured level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

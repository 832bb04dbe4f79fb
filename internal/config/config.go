// Package config resolves runtime settings for the onboarding commands from
// the environment, optionally seeded by .env files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvAPIURL      = "ONBOARD_API_URL"
	EnvSessionFile = "ONBOARD_SESSION_FILE"
	EnvTimeout     = "ONBOARD_TIMEOUT"
	EnvLogLevel    = "ONBOARD_LOG_LEVEL"
	EnvMockAddr    = "ONBOARD_MOCK_ADDR"
	EnvMockSecret  = "ONBOARD_MOCK_SECRET"
	EnvFormsDir    = "ONBOARD_FORMS_DIR"
	EnvReviewURL   = "ONBOARD_REVIEW_URL"
	EnvTemplates   = "ONBOARD_TEMPLATES_DIR"
)

// Defaults applied when a variable is unset.
const (
	DefaultAPIURL   = "http://localhost:8000"
	DefaultTimeout  = 30 * time.Second
	DefaultMockAddr = ":8000"
)

// Config holds the settings shared by onboard-cli and onboard-mock.
type Config struct {
	APIURL      string
	SessionFile string
	Timeout     time.Duration
	LogLevel    slog.Level
	MockAddr    string
	MockSecret  string
	FormsDir    string
	ReviewURL   string

	// TemplatesDir overrides the embedded notification templates file by file.
	TemplatesDir string
}

// Load reads the given .env files (".env" when none are named), then the
// environment. Variables already set in the environment win over .env
// values. Missing .env files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	cfg := &Config{
		APIURL:       strings.TrimRight(getEnv(EnvAPIURL, DefaultAPIURL), "/"),
		SessionFile:  getEnv(EnvSessionFile, defaultSessionFile()),
		Timeout:      DefaultTimeout,
		LogLevel:     slog.LevelInfo,
		MockAddr:     getEnv(EnvMockAddr, DefaultMockAddr),
		MockSecret:   os.Getenv(EnvMockSecret),
		FormsDir:     os.Getenv(EnvFormsDir),
		ReviewURL:    strings.TrimRight(os.Getenv(EnvReviewURL), "/"),
		TemplatesDir: os.Getenv(EnvTemplates),
	}

	if raw := os.Getenv(EnvTimeout); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("config: %s must be a positive duration, got %q", EnvTimeout, raw)
		}
		cfg.Timeout = timeout
	}
	if raw := os.Getenv(EnvLogLevel); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("config: %s: %w", EnvLogLevel, err)
		}
	}
	return cfg, nil
}

// Logger builds a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".onboard-session.json"
	}
	return filepath.Join(dir, "onboard", "session.json")
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

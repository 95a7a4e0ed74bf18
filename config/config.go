// ABOUTME: Runtime configuration loaded from .env files and the environment
// ABOUTME: Validates that credentials required by a command are present
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	DefaultModel       = "claude-sonnet-4-20250514"
	DefaultBaseURL     = "https://api.anthropic.com"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultRedirectURL = "http://localhost:8085/callback"
)

type Config struct {
	DBPath             string
	AnthropicAPIKey    string
	AnthropicModel     string
	AnthropicBaseURL   string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	LogLevel           string
	HTTPTimeout        time.Duration
	Location           *time.Location
	UserEmail          string
}

// Load reads .env files (missing ones are ignored) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBPath:             getenv("TOUCHBASE_DB_PATH"),
		AnthropicAPIKey:    getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:     getenv("ANTHROPIC_MODEL"),
		AnthropicBaseURL:   getenv("ANTHROPIC_BASE_URL"),
		GoogleClientID:     getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getenv("GOOGLE_REDIRECT_URL"),
		LogLevel:           strings.ToLower(getenv("LOG_LEVEL")),
		HTTPTimeout:        DefaultHTTPTimeout,
		Location:           time.Local,
		UserEmail:          getenv("TOUCHBASE_USER"),
	}

	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	if cfg.AnthropicModel == "" {
		cfg.AnthropicModel = DefaultModel
	}
	if cfg.AnthropicBaseURL == "" {
		cfg.AnthropicBaseURL = DefaultBaseURL
	}
	if cfg.GoogleRedirectURL == "" {
		cfg.GoogleRedirectURL = DefaultRedirectURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if v := getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", v, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q: must be positive", v)
		}
		cfg.HTTPTimeout = d
	}

	if v := getenv("TOUCHBASE_TIMEZONE"); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOUCHBASE_TIMEZONE %q: %w", v, err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

// DefaultDBPath is the XDG data location of the database.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "touchbase", "touchbase.db")
}

// TokenPath is where the Google OAuth token of the init flow is cached.
func TokenPath() string {
	return filepath.Join(xdg.ConfigHome, "touchbase", "google-token.json")
}

// Requirements selects which credential groups a command needs.
type Requirements struct {
	Analysis bool
	Google   bool
}

// MissingSetting names one absent variable and what it is needed for.
type MissingSetting struct {
	Name   string
	Reason string
}

type MissingSettingsError struct {
	Missing []MissingSetting
}

func (e *MissingSettingsError) Error() string {
	lines := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		lines = append(lines, fmt.Sprintf("  %s: %s", m.Name, m.Reason))
	}
	return "missing required environment variables:\n" + strings.Join(lines, "\n")
}

// Validate reports every missing variable for the requested features at once.
func (c *Config) Validate(req Requirements) error {
	var missing []MissingSetting
	if req.Analysis && c.AnthropicAPIKey == "" {
		missing = append(missing, MissingSetting{"ANTHROPIC_API_KEY", "required for Claude API access"})
	}
	if req.Google {
		if c.GoogleClientID == "" {
			missing = append(missing, MissingSetting{"GOOGLE_CLIENT_ID", "required for Google OAuth"})
		}
		if c.GoogleClientSecret == "" {
			missing = append(missing, MissingSetting{"GOOGLE_CLIENT_SECRET", "required for Google OAuth"})
		}
	}
	if len(missing) > 0 {
		return &MissingSettingsError{Missing: missing}
	}
	return nil
}

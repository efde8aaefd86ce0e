// Package config loads all Basecamp credentials and runtime settings once
// at process start. Nothing else in the repository reads the environment;
// downstream packages receive a Config by value.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds OAuth credentials and runtime settings for the Basecamp
// client, the CLI, and the MCP server.
type Config struct {
	// OAuth application credentials. Required only when an OAuth network
	// step is actually reached; cached-token usage works without them.
	ClientID     string `env:"BASECAMP_CLIENT_ID" yaml:"client_id"`
	ClientSecret string `env:"BASECAMP_CLIENT_SECRET" yaml:"client_secret"`
	RedirectURI  string `env:"BASECAMP_REDIRECT_URI" yaml:"redirect_uri"`

	// UserAgent identifies this integration to Basecamp, which requires a
	// contact address in the string. Always required.
	UserAgent string `env:"BASECAMP_USER_AGENT" yaml:"user_agent"`

	// AccountID pins the account when the token grants access to more
	// than one. Empty means resolve via authorization.json.
	AccountID string `env:"BASECAMP_ACCOUNT_ID" yaml:"account_id"`

	// TokenPath overrides where the cached OAuth token is stored.
	// Defaults to .basecamp/basecamp-token.json under the working
	// directory.
	TokenPath string `env:"BASECAMP_TOKEN_PATH" yaml:"token_path"`

	// Environment controls log format (production = JSON).
	Environment string `env:"ENVIRONMENT" envDefault:"development" yaml:"environment"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"BASECAMP_LOG_LEVEL" envDefault:"info" yaml:"log_level"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing credentials to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from the environment, after first loading a
// .env file if present and an optional YAML file named by BASECAMP_CONFIG.
// Environment values win over file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}

	if path := os.Getenv("BASECAMP_CONFIG"); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.TokenPath == "" {
		cfg.TokenPath = filepath.Join(".basecamp", "basecamp-token.json")
	}

	// The token cache path feeds directory creation and is compared
	// against by tests; resolve it once so behavior does not depend on
	// later working-directory changes.
	absPath, err := filepath.Abs(cfg.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("resolving token path: %w", err)
	}

	cfg.TokenPath = absPath

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadYAML fills cfg from a YAML file. Values set here act as defaults
// that env.Parse overwrites when the corresponding variable is set.
func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func (c *Config) validate() error {
	if c.UserAgent == "" {
		return fmt.Errorf("BASECAMP_USER_AGENT is required (e.g. \"MyApp (you@example.com)\")")
	}

	return nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasOAuthCredentials reports whether the full OAuth triad is configured.
// Checked lazily: only code paths that reach the identity provider need it.
func (c *Config) HasOAuthCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURI != ""
}

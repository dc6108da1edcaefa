// Package config loads harness configuration from YAML with
// environment overrides. A .env file, when present, is loaded first so
// local credentials never have to live in the checked-in config.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values applied when the config file omits them.
const (
	DefaultTimeoutSeconds = 30
	DefaultRunLogPath     = "poscheck.db"
)

// Credentials identify one backend user. Pin is only meaningful for
// the cashier role (POS terminal login).
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Pin      string `yaml:"pin,omitempty"`
}

// Browser configures the optional UI-automation engine.
type Browser struct {
	// DriverURL is the base URL of the external automation engine.
	// Empty disables browser-driven scenarios (they report skipped).
	DriverURL string `yaml:"driver_url,omitempty"`

	// AppURL is the POS frontend URL browser scenarios navigate to.
	AppURL string `yaml:"app_url,omitempty"`
}

// Config is the full harness configuration.
type Config struct {
	// BaseURL is the POS backend root, e.g. "http://127.0.0.1:47851".
	// The /api/v1 prefix is appended by the client.
	BaseURL string `yaml:"base_url"`

	// TimeoutSeconds bounds every HTTP call. No retries are performed;
	// a timeout is reported as an infrastructure failure.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`

	// Roles maps role names (admin, waiter, cashier) to credentials.
	Roles map[string]Credentials `yaml:"roles"`

	// Browser configures UI-level scenarios.
	Browser Browser `yaml:"browser,omitempty"`

	// RunLog is the SQLite file recording scenario outcomes.
	RunLog string `yaml:"run_log,omitempty"`
}

// Timeout returns the per-call HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Role returns the credentials for a role name.
func (c *Config) Role(name string) (Credentials, bool) {
	creds, ok := c.Roles[name]
	return creds, ok
}

// Load reads the config file at path, applies environment overrides,
// fills defaults, and validates. A .env file in the working directory
// is loaded first (missing .env is not an error).
//
// Unknown YAML fields are rejected to catch typos early.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyEnv overrides file values with POSCHECK_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("POSCHECK_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("POSCHECK_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("POSCHECK_DRIVER_URL"); v != "" {
		cfg.Browser.DriverURL = v
	}
	if v := os.Getenv("POSCHECK_APP_URL"); v != "" {
		cfg.Browser.AppURL = v
	}
	if v := os.Getenv("POSCHECK_RUN_LOG"); v != "" {
		cfg.RunLog = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.RunLog == "" {
		cfg.RunLog = DefaultRunLogPath
	}
}

func validate(cfg *Config) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if len(cfg.Roles) == 0 {
		return fmt.Errorf("roles map is required and must be non-empty")
	}
	for name, creds := range cfg.Roles {
		if creds.Username == "" {
			return fmt.Errorf("roles.%s: username is required", name)
		}
		if creds.Password == "" {
			return fmt.Errorf("roles.%s: password is required", name)
		}
	}
	return nil
}

// Package config loads the olsync configuration by merging values from
// command-line overrides, environment variables, and an optional JSON file.
package config

import (
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Default values applied when no other source provides a field.
const (
	DefaultBaseURL        = "https://www.overleaf.com"
	DefaultRequestTimeout = 15 * time.Second
	DefaultJoinTimeout    = 30 * time.Second

	sessionFileName = ".olsyncinfo"
)

// Config is the top-level configuration for olsync. It is populated by
// merging values from CLI flags, environment variables, and an optional
// JSON file, in that priority order (first non-zero value wins).
//
// Struct tags:
//   - env  — environment variable name, looked up with the OLSYNC_ prefix.
//   - json — field name in the optional JSON config file.
type Config struct {
	// BaseURL is the Overleaf instance to talk to, scheme included.
	// Env: OLSYNC_BASE_URL
	BaseURL string `env:"BASE_URL" json:"base_url"`

	// SessionFile is the path of the cached session info file.
	// Defaults to ~/.olsyncinfo.
	// Env: OLSYNC_SESSION_FILE
	SessionFile string `env:"SESSION_FILE" json:"session_file"`

	// RequestTimeout bounds every plain HTTP request, including the
	// realtime transport negotiation.
	// Env: OLSYNC_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" json:"request_timeout"`

	// JoinTimeout bounds the wait for the joinProjectResponse event once
	// the event channel is open. The upstream behaviour is to wait
	// forever; a negative value restores that. See the realtime package
	// for the error returned on expiry.
	// Env: OLSYNC_JOIN_TIMEOUT
	JoinTimeout time.Duration `env:"JOIN_TIMEOUT" json:"join_timeout"`

	// JSONFilePath is the optional path of a JSON configuration file,
	// merged with the lowest priority.
	// Env: OLSYNC_CONFIG
	JSONFilePath string `env:"CONFIG" json:"-"`
}

// Get loads, merges, and validates the configuration. overrides carries
// values parsed from CLI flags and has the highest priority; pass nil when
// the caller has none.
func Get(overrides *Config) (*Config, error) {
	return newConfigBuilder().
		withOverrides(overrides).
		withEnv().
		withJSON().
		withDefaults().
		build()
}

func defaults() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return &Config{
		BaseURL:        DefaultBaseURL,
		SessionFile:    filepath.Join(home, sessionFileName),
		RequestTimeout: DefaultRequestTimeout,
		JoinTimeout:    DefaultJoinTimeout,
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return ErrEmptyBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidRequestTimeout
	}
	return nil
}

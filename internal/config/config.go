// Package config provides process configuration for kondate.
//
// Paths derive from a single home directory ($KONDATE_HOME, defaulting
// to ~/.kondate). Tunables are read from environment variables with
// validated defaults; user-editable settings live in the TOML file
// handled by the userconfig package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// EnvKondateHome overrides the default kondate home directory.
	EnvKondateHome = "KONDATE_HOME"

	// EnvEditTimeout configures the wall-clock budget for one edit turn.
	EnvEditTimeout = "KONDATE_EDIT_TIMEOUT"

	// EnvEditStepCap configures the maximum model rounds per edit turn.
	EnvEditStepCap = "KONDATE_EDIT_STEP_CAP"

	// EnvModel overrides the text-generation model identifier.
	EnvModel = "KONDATE_MODEL"

	// DefaultEditTimeout bounds one edit turn (10 seconds).
	DefaultEditTimeout = 10 * time.Second

	// DefaultEditStepCap bounds the tool-calling loop per turn.
	DefaultEditStepCap = 5
)

// Config holds resolved filesystem locations.
type Config struct {
	HomeDir    string // $KONDATE_HOME
	DBPath     string // $KONDATE_HOME/kondate.db
	ConfigFile string // $KONDATE_HOME/config.toml
}

// DefaultHomeOverride lets tests redirect the home directory without
// touching the process environment.
var DefaultHomeOverride = ""

// DefaultConfig returns the default configuration.
func DefaultConfig() (*Config, error) {
	kondateHome := os.Getenv(EnvKondateHome)
	if kondateHome == "" {
		if DefaultHomeOverride != "" {
			kondateHome = DefaultHomeOverride
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			kondateHome = filepath.Join(home, ".kondate")
		}
	}

	return &Config{
		HomeDir:    kondateHome,
		DBPath:     filepath.Join(kondateHome, "kondate.db"),
		ConfigFile: filepath.Join(kondateHome, "config.toml"),
	}, nil
}

// EnsureHome creates the home directory if it does not exist.
func (c *Config) EnsureHome() error {
	if err := os.MkdirAll(c.HomeDir, 0o755); err != nil {
		return fmt.Errorf("failed to create kondate home: %w", err)
	}
	return nil
}

// GetEditTimeout returns the edit-turn deadline from KONDATE_EDIT_TIMEOUT.
// If not set or invalid, returns DefaultEditTimeout (10 seconds).
// Accepts duration strings like "10s", "30s", "1m".
func GetEditTimeout() time.Duration {
	envValue := os.Getenv(EnvEditTimeout)
	if envValue == "" {
		return DefaultEditTimeout
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvEditTimeout, envValue, DefaultEditTimeout)
		return DefaultEditTimeout
	}

	// Validate reasonable range (1 second to 2 minutes)
	if duration < 1*time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 1s\n",
			EnvEditTimeout, duration)
		return 1 * time.Second
	}
	if duration > 2*time.Minute {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 2m\n",
			EnvEditTimeout, duration)
		return 2 * time.Minute
	}

	return duration
}

// GetEditStepCap returns the model-round cap from KONDATE_EDIT_STEP_CAP.
// If not set or invalid, returns DefaultEditStepCap (5 rounds).
func GetEditStepCap() int {
	envValue := os.Getenv(EnvEditStepCap)
	if envValue == "" {
		return DefaultEditStepCap
	}

	cap, err := strconv.Atoi(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %d\n",
			EnvEditStepCap, envValue, DefaultEditStepCap)
		return DefaultEditStepCap
	}

	// Validate reasonable range (1 to 20 rounds)
	if cap < 1 {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%d), using minimum 1\n",
			EnvEditStepCap, cap)
		return 1
	}
	if cap > 20 {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%d), using maximum 20\n",
			EnvEditStepCap, cap)
		return 20
	}

	return cap
}

// GetModel returns the model identifier from KONDATE_MODEL, or the
// empty string when unset (callers fall back to their own default).
func GetModel() string {
	return os.Getenv(EnvModel)
}

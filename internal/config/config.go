// Package config loads and validates the shybar configuration file.
//
// The file is deliberately small. Hide/show timing and the trigger keys are
// fixed in the daemon, so configuration only covers how shybar reaches the
// X server, which dock window it manages, and how chatty the logs are.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Config is the effective shybar configuration.
type Config struct {
	// Display fills in $DISPLAY for the daemon's X connections when the
	// environment does not provide one (e.g. systemd user units).
	Display string `yaml:"display,omitempty"`
	// XAuthority fills in $XAUTHORITY the same way.
	XAuthority string `yaml:"xauthority,omitempty"`
	// PanelClass restricts the dock scan to windows whose WM_CLASS class
	// equals it exactly. Empty means the first dock window wins.
	PanelClass string `yaml:"panel_class,omitempty"`
	LogLevel   string `yaml:"log_level"`
}

type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
	}
}

func (c *Config) Validate() error {
	// WM_CLASS matching is exact, so stray whitespace would silently never
	// match any dock.
	if c.PanelClass != strings.TrimSpace(c.PanelClass) {
		return &ValidationError{Path: "panel_class", Err: fmt.Errorf("panel_class must not have leading or trailing whitespace")}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	return nil
}

// SlogLevel maps the configured log_level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ApplyEnv exports the display and xauthority settings so the X connections
// opened later in startup see them. Values already present in the
// environment win; the config only fills gaps.
func (c *Config) ApplyEnv() error {
	if d := strings.TrimSpace(c.Display); d != "" && strings.TrimSpace(os.Getenv("DISPLAY")) == "" {
		if err := os.Setenv("DISPLAY", d); err != nil {
			return fmt.Errorf("failed to set DISPLAY: %w", err)
		}
	}
	if xa := strings.TrimSpace(c.XAuthority); xa != "" && strings.TrimSpace(os.Getenv("XAUTHORITY")) == "" {
		if err := os.Setenv("XAUTHORITY", xa); err != nil {
			return fmt.Errorf("failed to set XAUTHORITY: %w", err)
		}
	}
	return nil
}

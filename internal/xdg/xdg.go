// Package xdg provides XDG Base Directory paths for LumenClass.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "lumenclass"

// ConfigDir returns the XDG config directory for lumenclass.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultConfigPath returns the default config file location. The file
// is optional; callers skip it when absent.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

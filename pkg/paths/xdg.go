// Package paths provides XDG-compliant path resolution for sensorsession.
//
// Resolution order:
// 1. SENSORSESSION_HOME (portable root) → $SENSORSESSION_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/sensorsession
// 3. Platform defaults → ~/.config/sensorsession, ~/.local/state/sensorsession
package paths

import (
	"os"
	"path/filepath"
)

const (
	appName = "sensorsession"
	homeEnv = "SENSORSESSION_HOME"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv(homeEnv); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv(homeEnv); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the user-level configuration directory. A
// sensorsession.yml there applies when no project file is found.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	if os.Getenv(homeEnv) != "" {
		return base
	}
	return filepath.Join(base, appName)
}

// StateDir returns the directory for runtime state such as log files.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	if os.Getenv(homeEnv) != "" {
		return base
	}
	return filepath.Join(base, appName)
}

// LogFile returns the default log file path for a component.
func LogFile(component string) string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "logs", component+".log")
}

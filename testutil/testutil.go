package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/sensorsession/config"
)

// RequireShell skips the test if /bin/sh is not available
func RequireShell(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

// ShellChild returns a logger configuration that runs script under sh -c.
// The session flag and its value arrive as $0 and $1.
func ShellChild(script string) config.ChildConfig {
	return config.ChildConfig{
		Program: "sh",
		Args:    []string{"-c", script},
	}
}

// TestConfig returns a configuration rooted at baseDir with short timings and
// shell scripts in place of the real loggers.
func TestConfig(baseDir, radarScript, beltScript string) *config.Config {
	cfg := config.Default()
	cfg.Session.BaseDir = baseDir
	cfg.Session.GracePeriod = config.Duration(300 * time.Millisecond)
	cfg.Session.KillWait = config.Duration(2 * time.Second)
	cfg.Radar = ShellChild(radarScript)
	cfg.Belt = ShellChild(beltScript)
	cfg.Outputs.FollowBelt = false
	return cfg
}

// SessionDirs lists the session directories under baseDir.
func SessionDirs(t *testing.T, baseDir string) []string {
	t.Helper()

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", baseDir, err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), config.DefaultDirPrefix) {
			dirs = append(dirs, filepath.Join(baseDir, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs
}

// WaitForFile polls until a file matching the glob pattern exists and
// returns its path. It does not take a *testing.T so it can run from a
// background goroutine.
func WaitForFile(pattern string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)

	for {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return "", err
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			return matches[0], nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("%s did not appear within %v", pattern, timeout)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

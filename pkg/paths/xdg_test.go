package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortableHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SENSORSESSION_HOME", home)

	assert.Equal(t, filepath.Join(home, "config"), ConfigDir())
	assert.Equal(t, filepath.Join(home, "state"), StateDir())
	assert.Equal(t, filepath.Join(home, "state", "logs", "supervisor.log"), LogFile("supervisor"))
}

func TestXDGVariables(t *testing.T) {
	t.Setenv("SENSORSESSION_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	assert.Equal(t, filepath.Join("/xdg/config", "sensorsession"), ConfigDir())
	assert.Equal(t, filepath.Join("/xdg/state", "sensorsession"), StateDir())
}

func TestPlatformDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SENSORSESSION_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".config", "sensorsession"), ConfigDir())
	assert.Equal(t, filepath.Join(home, ".local", "state", "sensorsession"), StateDir())
}

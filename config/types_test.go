package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("90")))
}

func TestDurationYAML(t *testing.T) {
	var s SessionConfig
	require.NoError(t, yaml.Unmarshal([]byte("grace_period: 250ms\n"), &s))
	assert.Equal(t, 250*time.Millisecond, s.GracePeriod.Std())

	out, err := yaml.Marshal(SessionConfig{KillWait: Duration(200 * time.Millisecond)})
	require.NoError(t, err)
	assert.Contains(t, string(out), "kill_wait: 200ms")
}

func TestUnmarshalExtensionMissingKey(t *testing.T) {
	cfg := Default()
	var target struct {
		Level string `yaml:"level"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &target))
	assert.Empty(t, target.Level)
}

func TestSetDefaultsRestoresBlankStrings(t *testing.T) {
	cfg := Default()
	cfg.Session.BaseDir = ""
	cfg.Belt.ElevateCommand = ""
	cfg.SetDefaults()

	assert.Equal(t, DefaultBaseDir, cfg.Session.BaseDir)
	assert.Equal(t, DefaultElevateCommand, cfg.Belt.ElevateCommand)
}

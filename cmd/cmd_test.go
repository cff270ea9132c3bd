package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/sensorsession/config"
	"github.com/grovetools/sensorsession/errors"
	"github.com/grovetools/sensorsession/internal/pidfile"
	"github.com/grovetools/sensorsession/internal/serialprobe"
	"github.com/grovetools/sensorsession/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, radarScript, beltScript string) string {
	t.Helper()
	content := `version: "1.0"
session:
  base_dir: ` + filepath.Join(dir, "data") + `
  grace_period: 300ms
  kill_wait: 1s
radar:
  program: sh
  args: ["-c", "` + radarScript + `"]
  serial_port: ""
belt:
  program: sh
  args: ["-c", "` + beltScript + `"]
  elevate: false
outputs:
  follow_belt: false
`
	path := filepath.Join(dir, "sensorsession.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunCompletes(t *testing.T) {
	testutil.RequireShell(t)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "exit 0", "exit 0")

	out, err := execute(t, "\n", "run", "--config", cfgPath, "--no-probe")
	require.NoError(t, err, out)

	sessions := testutil.SessionDirs(t, filepath.Join(dir, "data"))
	require.Len(t, sessions, 1)
	assert.FileExists(t, filepath.Join(sessions[0], "human_enter_time.txt"))

	running, _, err := pidfile.IsRunning(filepath.Join(dir, "data", config.DefaultPIDFile))
	require.NoError(t, err)
	assert.False(t, running, "pid file is released")
}

func TestRunBeltFailureExitsWithError(t *testing.T) {
	testutil.RequireShell(t)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "exec sleep 30", "exit 1")

	_, err := execute(t, "\n", "run", "--config", cfgPath, "--no-probe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeBeltStartupFailed))
	assert.Empty(t, testutil.SessionDirs(t, filepath.Join(dir, "data")))
}

func TestRunJSONSummary(t *testing.T) {
	testutil.RequireShell(t)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "exit 0", "exit 0")

	out, err := execute(t, "\n", "run", "--config", cfgPath, "--no-probe", "--json")
	require.NoError(t, err)

	start := strings.Index(out, "{\n")
	require.GreaterOrEqual(t, start, 0, out)
	var summary runSummary
	require.NoError(t, json.Unmarshal([]byte(out[start:]), &summary))
	assert.Equal(t, "COMPLETED", summary.State)
	assert.Len(t, summary.Children, 2)
}

func TestRunMissingConfigFile(t *testing.T) {
	_, err := execute(t, "", "run", "--config", filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestApplyRunFlags(t *testing.T) {
	cmd := NewRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--grace-period", "3s", "--no-elevate"}))

	cfg := config.Default()
	cfg.Session.BaseDir = "/from/file"
	cfg.Session.KillWait = config.Duration(time.Second)

	var flags runFlags
	flags.gracePeriod, _ = cmd.Flags().GetDuration("grace-period")
	flags.noElevate, _ = cmd.Flags().GetBool("no-elevate")
	applyRunFlags(cmd, &flags, cfg)

	assert.Equal(t, 3*time.Second, cfg.Session.GracePeriod.Std())
	assert.Equal(t, time.Second, cfg.Session.KillWait.Std(), "unset flag keeps the file value")
	assert.Equal(t, "/from/file", cfg.Session.BaseDir)
	assert.False(t, cfg.Belt.Elevate)
}

func TestConfigShowAndValidate(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "exit 0", "exit 0")

	out, err := execute(t, "", "config", "show", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "# Source: "+cfgPath)
	assert.Contains(t, out, "grace_period: 300ms")

	out, err = execute(t, "", "config", "validate", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("session:\n  grace_period: 0s\n"), 0644))
	_, err = execute(t, "", "config", "validate", bad)
	assert.Error(t, err)

	unknown := filepath.Join(dir, "unknown.yml")
	require.NoError(t, os.WriteFile(unknown, []byte("sessions: {}\n"), 0644))
	_, err = execute(t, "", "config", "validate", unknown)
	assert.Error(t, err)
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, "", "config", "schema")
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, schema, "properties")
}

func TestPorts(t *testing.T) {
	prober := serialprobe.NewWithLister(func() ([]string, error) {
		return []string{"/dev/ttyUSB0", "/dev/ttyACM0"}, nil
	})

	cmd := newPortsCmd(prober)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "/dev/ttyACM0\n/dev/ttyUSB0\n", out.String())
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
}

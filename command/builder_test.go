package command

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"timestamp id", "20251211_121123", false},
		{"custom id", "rig-2.T12:00", false},
		{"empty", "", true},
		{"path separator", "2025/12/11", true},
		{"leading dash", "-rf", true},
		{"shell chars", "id;rm", true},
		{"space", "a b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSessionID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateSessionID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFileName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"belt csv", "20251211_121123_belt.csv", false},
		{"empty path", "", true},
		{"directory traversal", "../etc/passwd", true},
		{"semicolon", "file;rm -rf", true},
		{"pipe", "file|cat", true},
		{"dollar sign", "$HOME/file", true},
		{"backtick", "file`whoami`", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFileName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUnknownType(t *testing.T) {
	b := NewChildBuilder()
	assert.Error(t, b.Validate("gitRef", "main"))
}

func TestRadarCommandLine(t *testing.T) {
	b := NewChildBuilder()
	cmd, err := b.Radar(ChildSpec{
		Program: "python3",
		Args:    []string{"xm125_breathing_refapp_pi_v1.py"},
	}, "20251211_121123")
	require.NoError(t, err)

	assert.Equal(t, []string{"python3", "xm125_breathing_refapp_pi_v1.py", "--prefix", "20251211_121123"}, cmd.Argv)
	assert.Equal(t, "python3 xm125_breathing_refapp_pi_v1.py --prefix 20251211_121123", cmd.String())
}

func TestBeltCommandLineElevated(t *testing.T) {
	b := NewChildBuilder()
	cmd, err := b.Belt(ChildSpec{
		Program:        "python3",
		Args:           []string{"belt_logger.py"},
		Elevate:        true,
		ElevateCommand: "sudo",
	}, "20251211_121123_belt.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"sudo", "python3", "belt_logger.py", "--out", "20251211_121123_belt.csv"}, cmd.Argv)
}

func TestBuildRejectsBadInput(t *testing.T) {
	b := NewChildBuilder()

	_, err := b.Radar(ChildSpec{Program: ""}, "20251211_121123")
	assert.Error(t, err)

	_, err = b.Radar(ChildSpec{Program: "radar"}, "../x")
	assert.Error(t, err)

	_, err = b.Belt(ChildSpec{Program: "belt", Elevate: true}, "x_belt.csv")
	assert.Error(t, err, "elevation without a wrapper command must fail")

	_, err = b.Belt(ChildSpec{Program: "belt"}, "x;y.csv")
	assert.Error(t, err)
}

type recordingExecutor struct {
	RealExecutor
	names []string
}

func (r *recordingExecutor) Command(name string, args ...string) *exec.Cmd {
	r.names = append(r.names, name)
	return r.RealExecutor.Command(name, args...)
}

func TestExecUsesExecutorAndDir(t *testing.T) {
	rec := &recordingExecutor{}
	b := NewChildBuilderWithExecutor(rec)

	cmd, err := b.Radar(ChildSpec{Program: "sh", Args: []string{"-c", "pwd"}}, "abc")
	require.NoError(t, err)

	dir := t.TempDir()
	var stdout bytes.Buffer
	execCmd := cmd.Exec(dir, &stdout, &stdout)

	assert.Equal(t, []string{"sh"}, rec.names)
	assert.Equal(t, dir, execCmd.Dir)
	assert.Nil(t, execCmd.Stdin)

	require.NoError(t, execCmd.Run())
	assert.Contains(t, stdout.String(), filepath.Base(dir))
}

func TestRealExecutorAppendsEnv(t *testing.T) {
	b := NewChildBuilderWithExecutor(&RealExecutor{Env: []string{"SENSOR_TEST_MARK=belt-42"}})

	cmd, err := b.Belt(ChildSpec{Program: "sh", Args: []string{"-c", `echo "$SENSOR_TEST_MARK"`}}, "out.csv")
	require.NoError(t, err)

	var stdout bytes.Buffer
	require.NoError(t, cmd.Exec(t.TempDir(), &stdout, &stdout).Run())
	assert.Equal(t, "belt-42\n", stdout.String())
}

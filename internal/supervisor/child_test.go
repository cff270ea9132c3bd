package supervisor

import (
	"io"
	"testing"
	"time"

	"github.com/grovetools/sensorsession/command"
	"github.com/grovetools/sensorsession/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shellCommand(t *testing.T, script string) *command.Command {
	t.Helper()
	cmd, err := command.NewChildBuilder().Radar(command.ChildSpec{
		Program: "sh",
		Args:    []string{"-c", script},
	}, "test")
	require.NoError(t, err)
	return cmd
}

func TestChildExitCode(t *testing.T) {
	testutil.RequireShell(t)

	c, err := startChild("belt", shellCommand(t, "exit 7"), t.TempDir(), io.Discard, io.Discard)
	require.NoError(t, err)
	assert.Greater(t, c.PID(), 0)

	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("child did not exit")
	}

	code, exited := c.ExitCode()
	assert.True(t, exited)
	assert.Equal(t, 7, code)
	assert.False(t, c.Alive())
}

func TestChildTerminate(t *testing.T) {
	testutil.RequireShell(t)

	c, err := startChild("radar", shellCommand(t, "exec sleep 30"), t.TempDir(), io.Discard, io.Discard)
	require.NoError(t, err)

	_, exited := c.ExitCode()
	assert.False(t, exited)
	assert.True(t, c.Alive())

	require.NoError(t, c.Terminate())
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("child ignored SIGTERM")
	}

	code, exited := c.ExitCode()
	assert.True(t, exited)
	assert.Equal(t, -1, code, "signalled processes report -1")

	assert.NoError(t, c.Terminate())
}

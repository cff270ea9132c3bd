package command

import (
	"os"
	"os/exec"
)

// Executor creates the exec.Cmd for a logger. Tests substitute their own to
// observe or redirect what gets launched.
type Executor interface {
	Command(name string, args ...string) *exec.Cmd
}

// RealExecutor launches programs with os/exec. Env, when set, is appended to
// the supervisor's own environment.
type RealExecutor struct {
	Env []string
}

// Command creates an exec.Cmd for name.
func (e *RealExecutor) Command(name string, args ...string) *exec.Cmd {
	cmd := exec.Command(name, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	return cmd
}

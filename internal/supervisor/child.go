package supervisor

import (
	"io"
	"os/exec"
	"sync"

	"github.com/grovetools/sensorsession/command"
	"github.com/grovetools/sensorsession/pkg/process"
)

// Child is a running sensor logger. A single goroutine reaps it; everything
// else observes the done channel.
type Child struct {
	Name    string
	Command *command.Command

	cmd  *exec.Cmd
	done chan struct{}

	mu       sync.Mutex
	exitCode int
}

func startChild(name string, c *command.Command, dir string, stdout, stderr io.Writer) (*Child, error) {
	cmd := c.Exec(dir, stdout, stderr)
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	child := &Child{
		Name:     name,
		Command:  c,
		cmd:      cmd,
		done:     make(chan struct{}),
		exitCode: -1,
	}
	go child.wait()
	return child, nil
}

func (c *Child) wait() {
	// A non-zero exit is reported through ProcessState.
	_ = c.cmd.Wait()

	c.mu.Lock()
	if c.cmd.ProcessState != nil {
		c.exitCode = c.cmd.ProcessState.ExitCode()
	}
	c.mu.Unlock()

	close(c.done)
}

// PID returns the child's process id.
func (c *Child) PID() int {
	return c.cmd.Process.Pid
}

// Done is closed once the child has exited and been reaped.
func (c *Child) Done() <-chan struct{} {
	return c.done
}

// Alive reports whether the child has not exited yet.
func (c *Child) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// ExitCode returns the exit status and true once the child has exited. A
// child killed by a signal reports -1.
func (c *Child) ExitCode() (int, bool) {
	if c.Alive() {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exitCode, true
}

// Terminate sends SIGTERM. Calling it on an exited child is a no-op.
func (c *Child) Terminate() error {
	if !c.Alive() {
		return nil
	}
	return process.Terminate(c.cmd.Process)
}

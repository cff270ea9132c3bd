package errors

import (
	"fmt"
	"os/exec"
	"strings"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *SessionError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *SessionError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// SessionDirFailed reports that the session directory or its start file
// could not be created.
func SessionDirFailed(dir string, err error) *SessionError {
	return Wrap(err, ErrCodeSessionDirCreate, fmt.Sprintf("failed to create session directory %s", dir)).
		WithDetail("dir", dir)
}

// SessionWriteFailed reports a failed write of a session file.
func SessionWriteFailed(path string, err error) *SessionError {
	return Wrap(err, ErrCodeSessionWrite, fmt.Sprintf("failed to write %s", path)).
		WithDetail("path", path)
}

// SessionLocked reports that another supervisor owns the base directory.
func SessionLocked(pidFile string, pid int) *SessionError {
	return New(ErrCodeSessionLocked, fmt.Sprintf("another session is already running with PID %d", pid)).
		WithDetail("pidFile", pidFile).
		WithDetail("pid", pid)
}

// ChildSpawnFailed creates a child process start failure error
func ChildSpawnFailed(child string, argv []string, err error) *SessionError {
	sessErr := Wrap(err, ErrCodeChildSpawnFailed, fmt.Sprintf("failed to start %s logger", child)).
		WithDetail("child", child).
		WithDetail("command", strings.Join(argv, " "))

	if exitErr, ok := err.(*exec.ExitError); ok {
		sessErr = sessErr.WithDetail("exitCode", exitErr.ExitCode())
	}
	if execErr, ok := err.(*exec.Error); ok {
		sessErr = sessErr.WithDetail("program", execErr.Name)
	}

	return sessErr
}

// BeltStartupFailed reports that the belt logger exited with a non-zero
// status inside its grace period.
func BeltStartupFailed(exitCode int, grace string) *SessionError {
	return New(ErrCodeBeltStartupFailed,
		fmt.Sprintf("belt logger exited with code %d within %s", exitCode, grace)).
		WithDetail("exitCode", exitCode).
		WithDetail("gracePeriod", grace)
}

// Interrupted reports an operator interrupt.
func Interrupted(state string) *SessionError {
	return New(ErrCodeInterrupted, fmt.Sprintf("session interrupted during %s", state)).
		WithDetail("state", state)
}

package cli

import (
	"fmt"
	"io"

	"github.com/grovetools/sensorsession/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to out
func NewErrorHandler(verbose bool, out io.Writer) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     out,
	}
}

// Handle prints a message for err based on its code and returns err
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	sessErr, _ := errors.As(err)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "Configuration not found: %v\n", sessErr.Details["path"])
		fmt.Fprintf(h.Out, "Omit --config to run with defaults, or create sensorsession.yml.\n")

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(h.Out, "%s\n", sessErr.Message)
		fmt.Fprintf(h.Out, "Run 'sensorsession config validate' for details.\n")

	case errors.ErrCodeSessionDirCreate:
		fmt.Fprintf(h.Out, "Could not create session directory %v\n", sessErr.Details["dir"])
		if sessErr.Cause != nil {
			fmt.Fprintf(h.Out, "  %v\n", sessErr.Cause)
		}

	case errors.ErrCodeSessionLocked:
		fmt.Fprintf(h.Out, "Another session (PID %v) is already recording in this directory.\n", sessErr.Details["pid"])
		fmt.Fprintf(h.Out, "Stop it first, or remove %v if it is stale.\n", sessErr.Details["pidFile"])

	case errors.ErrCodeChildSpawnFailed:
		fmt.Fprintf(h.Out, "%s: %v\n", sessErr.Message, sessErr.Details["command"])
		if sessErr.Cause != nil {
			fmt.Fprintf(h.Out, "  %v\n", sessErr.Cause)
		}

	case errors.ErrCodeBeltStartupFailed:
		fmt.Fprintf(h.Out, "Belt logger failed to start (exit code %v). The session was discarded.\n", sessErr.Details["exitCode"])
		fmt.Fprintf(h.Out, "Check that the belt is connected and that sudo does not prompt for a password.\n")

	case errors.ErrCodeInterrupted:
		fmt.Fprintf(h.Out, "Session interrupted during %v.\n", sessErr.Details["state"])

	default:
		fmt.Fprintf(h.Out, "Error: %v\n", err)
	}

	if h.Verbose && sessErr != nil {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", sessErr.ToJSON())
	}
	return err
}

package command

import (
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// Flags appended to each logger's own arguments. The radar logger derives
// its file names from a prefix; the belt logger takes the CSV name directly.
const (
	RadarPrefixFlag = "--prefix"
	BeltOutFlag     = "--out"
)

// OutputWaitDelay bounds how long Wait keeps copying output after a logger
// has exited.
const OutputWaitDelay = time.Second

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]*$`)

// ChildSpec describes how to launch one sensor logger.
type ChildSpec struct {
	Program        string
	Args           []string
	Elevate        bool
	ElevateCommand string
}

// ChildBuilder validates session-derived arguments and builds the command
// lines of the sensor loggers.
type ChildBuilder struct {
	validators map[string]func(string) error
	executor   Executor
}

// NewChildBuilder creates a new ChildBuilder instance with a RealExecutor
func NewChildBuilder() *ChildBuilder {
	return NewChildBuilderWithExecutor(&RealExecutor{})
}

// NewChildBuilderWithExecutor creates a new ChildBuilder with a custom Executor
func NewChildBuilderWithExecutor(exec Executor) *ChildBuilder {
	return &ChildBuilder{
		validators: makeDefaultValidators(),
		executor:   exec,
	}
}

// makeDefaultValidators returns the default set of validators
func makeDefaultValidators() map[string]func(string) error {
	return map[string]func(string) error{
		"sessionID": validateSessionID,
		"fileName":  validateFileName,
		"program":   validateProgram,
	}
}

// validateSessionID ensures a session id is usable as a file name prefix
func validateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("invalid session id: %s (must contain only letters, digits, '_', '.', ':' and '-')", id)
	}
	return nil
}

// validateFileName ensures file paths are safe
func validateFileName(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	// Prevent directory traversal
	if strings.Contains(path, "..") {
		return fmt.Errorf("file path cannot contain '..'")
	}

	// Prevent command injection via shell metacharacters
	if strings.ContainsAny(path, ";|&$`") {
		return fmt.Errorf("file path contains invalid characters")
	}

	return nil
}

// validateProgram rejects empty program names
func validateProgram(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("program cannot be empty")
	}
	return nil
}

// Validate validates specific arguments
func (b *ChildBuilder) Validate(argType string, value string) error {
	validator, exists := b.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}

	return validator(value)
}

// Radar builds `<program> <args...> --prefix <sessionID>`.
func (b *ChildBuilder) Radar(spec ChildSpec, sessionID string) (*Command, error) {
	if err := b.Validate("sessionID", sessionID); err != nil {
		return nil, err
	}
	return b.build(spec, RadarPrefixFlag, sessionID)
}

// Belt builds `[sudo] <program> <args...> --out <outFile>`.
func (b *ChildBuilder) Belt(spec ChildSpec, outFile string) (*Command, error) {
	if err := b.Validate("fileName", outFile); err != nil {
		return nil, err
	}
	return b.build(spec, BeltOutFlag, outFile)
}

func (b *ChildBuilder) build(spec ChildSpec, flag, value string) (*Command, error) {
	if err := b.Validate("program", spec.Program); err != nil {
		return nil, err
	}

	var argv []string
	if spec.Elevate {
		if err := b.Validate("program", spec.ElevateCommand); err != nil {
			return nil, fmt.Errorf("elevate command: %w", err)
		}
		argv = append(argv, spec.ElevateCommand)
	}
	argv = append(argv, spec.Program)
	argv = append(argv, spec.Args...)
	argv = append(argv, flag, value)

	return &Command{Argv: argv, executor: b.executor}, nil
}

// Command is a validated logger command line.
type Command struct {
	Argv     []string
	executor Executor
}

// String returns the command line joined by spaces.
func (c *Command) String() string {
	return strings.Join(c.Argv, " ")
}

// Exec creates the exec.Cmd for the command. The child runs in dir, writes
// to stdout and stderr, and gets no stdin so that the operator's console
// input stays with the supervisor.
func (c *Command) Exec(dir string, stdout, stderr io.Writer) *exec.Cmd {
	cmd := c.executor.Command(c.Argv[0], c.Argv[1:]...) //nolint:gosec // ChildBuilder provides validation
	cmd.Dir = dir
	cmd.Stdin = nil
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// A logger's own children can hold the output pipes open after it exits.
	cmd.WaitDelay = OutputWaitDelay
	return cmd
}

// Package supervisor runs one data-collection session: it creates the session
// directory, launches the radar and belt loggers, records the operator's
// marker, judges the belt's startup, and then waits for the loggers to finish
// or for the operator to interrupt.
package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/grovetools/sensorsession/command"
	"github.com/grovetools/sensorsession/config"
	"github.com/grovetools/sensorsession/errors"
	"github.com/grovetools/sensorsession/internal/outputs"
	"github.com/grovetools/sensorsession/internal/serialprobe"
	"github.com/grovetools/sensorsession/internal/session"
	"github.com/grovetools/sensorsession/internal/timeutil"
	"github.com/grovetools/sensorsession/logging"
	"github.com/sirupsen/logrus"
)

// Options configures a Supervisor. Zero values select the production
// defaults.
type Options struct {
	Config      *config.Config
	Builder     *command.ChildBuilder
	Clock       timeutil.Clock
	Stdin       io.Reader
	ChildStdout io.Writer
	ChildStderr io.Writer
	Printer     Printer
	Logger      *logrus.Entry

	// Prober checks the radar serial port before launch. Nil skips the check.
	Prober *serialprobe.Prober
}

// ChildStatus is a snapshot of one logger.
type ChildStatus struct {
	Name     string
	PID      int
	Command  string
	Exited   bool
	ExitCode int
}

// Result describes how a session ended.
type Result struct {
	State          State
	History        []State
	SessionID      string
	Dir            string
	MarkedAt       time.Time
	Children       []ChildStatus
	BeltCleanEarly bool
	MissingOutputs []string
}

// Supervisor owns the session and both child handles for the duration of
// Run.
type Supervisor struct {
	cfg     *config.Config
	builder *command.ChildBuilder
	clock   timeutil.Clock
	stdin   *bufio.Reader
	stdout  io.Writer
	stderr  io.Writer
	printer Printer
	logger  *logrus.Entry
	prober  *serialprobe.Prober

	mu      sync.Mutex
	state   State
	history []State

	session *session.Session
	radar   *Child
	belt    *Child

	watcher       *outputs.Watcher
	follower      *outputs.Follower
	stopObserving context.CancelFunc
	missing       []string

	beltCleanEarly bool

	interruptOnce sync.Once
	interruptErr  error
}

// New creates a Supervisor.
func New(opts Options) *Supervisor {
	s := &Supervisor{
		cfg:     opts.Config,
		builder: opts.Builder,
		clock:   opts.Clock,
		stdout:  opts.ChildStdout,
		stderr:  opts.ChildStderr,
		printer: opts.Printer,
		logger:  opts.Logger,
		prober:  opts.Prober,
		state:   StateInit,
		history: []State{StateInit},
	}

	if s.cfg == nil {
		s.cfg = config.Default()
	}
	if s.clock == nil {
		s.clock = timeutil.RealClock{}
	}
	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	s.stdin = bufio.NewReader(stdin)
	if s.stdout == nil {
		s.stdout = os.Stdout
	}
	if s.stderr == nil {
		s.stderr = os.Stderr
	}
	if s.printer == nil {
		s.printer = PlainPrinter{W: os.Stdout}
	}
	if s.logger == nil {
		s.logger = logging.NewLogger("supervisor")
	}
	return s
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) transition(to State) {
	s.mu.Lock()
	from := s.state
	if !CanTransition(from, to) {
		s.logger.Errorf("unexpected state transition %s -> %s", from, to)
	}
	s.state = to
	s.history = append(s.history, to)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Debug("state transition")
}

// Run executes the session. The returned error is nil only when both
// loggers exited on their own after the session reached RUNNING. Cancelling
// ctx is the interrupt path.
func (s *Supervisor) Run(ctx context.Context) (*Result, error) {
	defer s.stopObservers()

	s.preflight()

	sess, err := session.Start(session.Options{
		BaseDir:   s.cfg.Session.BaseDir,
		DirPrefix: s.cfg.Session.DirPrefix,
		IDFormat:  s.cfg.Session.IDFormat,
	}, s.clock)
	if err != nil {
		s.printer.Error(fmt.Sprintf("Could not create session directory: %v", err))
		return s.result(), err
	}
	s.session = sess
	s.transition(StateDirCreated)
	s.logger.WithFields(logrus.Fields{
		"session": sess.ID,
		"dir":     sess.Dir,
		"start":   sess.StartedAt.Unix(),
	}).Info("Session started")
	s.printer.Step(fmt.Sprintf("Session %s created in %s", sess.ID, sess.Dir))

	if ctx.Err() != nil {
		return s.result(), errors.Interrupted(s.State().String())
	}

	if err := s.spawn(); err != nil {
		s.printer.Error(err.Error())
		return s.result(), err
	}
	s.transition(StateChildrenSpawned)
	s.startWatcher()

	s.transition(StateAwaitingHumanMarker)
	if err := s.awaitHumanMarker(ctx); err != nil {
		if ctx.Err() != nil {
			ierr := s.interrupt()
			return s.result(), ierr
		}
		s.terminateChildren()
		return s.result(), err
	}

	s.transition(StateHealthCheck)
	if err := s.checkBeltHealth(ctx); err != nil {
		if ctx.Err() != nil && s.State() == StateHealthCheck {
			ierr := s.interrupt()
			return s.result(), ierr
		}
		return s.result(), err
	}

	s.transition(StateRunning)
	s.startFollower()
	err = s.runUntilInterrupted(ctx)
	return s.result(), err
}

func (s *Supervisor) preflight() {
	port := s.cfg.Radar.SerialPort
	if s.prober == nil || port == "" {
		return
	}

	res, err := s.prober.Check(port)
	if err != nil {
		s.logger.WithError(err).Warn("Could not enumerate serial ports")
		return
	}
	if !res.Present {
		s.logger.WithField("available", res.Available).Warnf("Radar serial port %s not found", port)
		s.printer.Warn(fmt.Sprintf("Radar serial port %s not found (detected: %s)", port, joinOrNone(res.Available)))
	}
}

// Environment handed to both loggers. sudo drops it unless configured to
// keep it.
const (
	SessionIDEnv  = "SENSORSESSION_SESSION_ID"
	SessionDirEnv = "SENSORSESSION_SESSION_DIR"
)

// spawn launches radar then belt. If the belt cannot be started the radar is
// stopped again; the session directory is kept.
func (s *Supervisor) spawn() error {
	if s.builder == nil {
		s.builder = command.NewChildBuilderWithExecutor(&command.RealExecutor{Env: []string{
			SessionIDEnv + "=" + s.session.ID,
			SessionDirEnv + "=" + s.session.Dir,
		}})
	}

	radarCmd, err := s.builder.Radar(childSpec(s.cfg.Radar), s.session.RadarPrefix())
	if err != nil {
		return errors.ChildSpawnFailed("radar", nil, err)
	}
	beltCmd, err := s.builder.Belt(childSpec(s.cfg.Belt), s.session.BeltOutputName())
	if err != nil {
		return errors.ChildSpawnFailed("belt", nil, err)
	}

	radar, err := startChild("radar", radarCmd, s.session.Dir, s.stdout, s.stderr)
	if err != nil {
		return errors.ChildSpawnFailed("radar", radarCmd.Argv, err)
	}
	s.radar = radar
	s.logger.WithFields(logrus.Fields{"pid": radar.PID(), "command": radarCmd.String()}).Info("Radar logger started")
	s.printer.Step(fmt.Sprintf("Radar logger started (pid %d)", radar.PID()))

	belt, err := startChild("belt", beltCmd, s.session.Dir, s.stdout, s.stderr)
	if err != nil {
		s.terminateChildren()
		return errors.ChildSpawnFailed("belt", beltCmd.Argv, err)
	}
	s.belt = belt
	s.logger.WithFields(logrus.Fields{"pid": belt.PID(), "command": beltCmd.String()}).Info("Belt logger started")
	s.printer.Step(fmt.Sprintf("Belt logger started (pid %d)", belt.PID()))
	return nil
}

func childSpec(c config.ChildConfig) command.ChildSpec {
	return command.ChildSpec{
		Program:        c.Program,
		Args:           c.Args,
		Elevate:        c.Elevate,
		ElevateCommand: c.ElevateCommand,
	}
}

// awaitHumanMarker blocks on one line of operator input. EOF counts as
// confirmation so that piped runs still proceed.
func (s *Supervisor) awaitHumanMarker(ctx context.Context) error {
	s.printer.Prompt("Press Enter when the subject is seated... ")

	lineErr := make(chan error, 1)
	go func() {
		_, err := s.stdin.ReadString('\n')
		lineErr <- err
	}()

	select {
	case err := <-lineErr:
		if err == io.EOF {
			s.logger.Warn("stdin closed before Enter; taking EOF as the marker")
		} else if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to read operator input")
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	markedAt, err := s.session.RecordHumanMarker()
	if err != nil {
		return err
	}
	s.logger.WithField("human_enter", markedAt.Unix()).Info("Human marker recorded")
	s.printer.Success(fmt.Sprintf("Marker recorded at %d", markedAt.Unix()))
	return nil
}

// checkBeltHealth waits out the grace period and then judges the belt. A
// non-zero exit aborts the session and deletes its directory.
func (s *Supervisor) checkBeltHealth(ctx context.Context) error {
	grace := s.cfg.Session.GracePeriod.Std()
	s.printer.Step(fmt.Sprintf("Waiting %s for the belt logger to start...", grace))

	select {
	case <-s.clock.After(grace):
	case <-ctx.Done():
		return ctx.Err()
	}

	if s.belt.Alive() {
		s.logger.WithField("pid", s.belt.PID()).Info("Belt logger alive after grace period")
		s.printer.Success("Belt logger is running")
		return nil
	}

	code, _ := s.belt.ExitCode()
	if code == 0 {
		s.beltCleanEarly = true
		s.logger.Warn("Belt logger exited with code 0 during the grace period; continuing")
		s.printer.Warn("Belt logger exited cleanly before the session started; continuing without it")

		rows, err := outputs.CountDataRows(s.session.Path(s.session.BeltOutputName()))
		switch {
		case err != nil:
			s.logger.WithError(err).Warn("Belt logger exited cleanly but left no output file")
			s.printer.Warn(fmt.Sprintf("No belt data: %s was not written", s.session.BeltOutputName()))
		case rows == 0:
			s.logger.Warn("Belt logger exited cleanly but wrote no data rows")
			s.printer.Warn(fmt.Sprintf("No belt data: %s has no rows", s.session.BeltOutputName()))
		}
		return nil
	}

	s.logger.WithField("exit_code", code).Error("Belt logger failed during startup")
	s.printer.Error(fmt.Sprintf("Belt logger exited with code %d; aborting session", code))

	if err := s.radar.Terminate(); err != nil {
		s.logger.WithError(err).Warn("Failed to signal radar logger")
	}
	s.waitForExit(s.cfg.Session.KillWait.Std(), s.radar)
	s.stopObservers()

	if err := s.session.Remove(); err != nil {
		s.logger.WithError(err).Error("Failed to remove session directory")
	} else {
		s.printer.Step(fmt.Sprintf("Removed %s", s.session.Dir))
	}
	s.transition(StateAborted)
	return errors.BeltStartupFailed(code, grace.String())
}

// runUntilInterrupted waits for both loggers to exit on their own.
func (s *Supervisor) runUntilInterrupted(ctx context.Context) error {
	s.printer.Step("Recording. Press Ctrl+C to stop.")

	bothDone := make(chan struct{})
	go func() {
		<-s.radar.Done()
		<-s.belt.Done()
		close(bothDone)
	}()

	select {
	case <-bothDone:
	case <-ctx.Done():
		return s.interrupt()
	}

	s.stopObservers()
	s.transition(StateCompleted)
	s.writeManifest()
	s.printer.Success(fmt.Sprintf("Both loggers exited; session saved in %s", s.session.Dir))
	return nil
}

// interrupt stops both loggers and ends the session. It runs at most once.
func (s *Supervisor) interrupt() error {
	s.interruptOnce.Do(func() {
		from := s.State()
		s.logger.WithField("state", from.String()).Warn("Interrupted")
		s.printer.Warn("Interrupted; stopping loggers")

		s.terminateChildren()
		s.stopObservers()
		s.transition(StateInterrupted)
		s.writeManifest()
		s.interruptErr = errors.Interrupted(from.String())
	})
	return s.interruptErr
}

// terminateChildren signals every started logger and waits up to kill_wait.
func (s *Supervisor) terminateChildren() {
	children := s.children()
	for _, c := range children {
		if err := c.Terminate(); err != nil {
			s.logger.WithError(err).Warnf("Failed to signal %s logger", c.Name)
		}
	}
	s.waitForExit(s.cfg.Session.KillWait.Std(), children...)
}

func (s *Supervisor) waitForExit(d time.Duration, children ...*Child) {
	timeout := s.clock.After(d)
	for _, c := range children {
		select {
		case <-c.Done():
		case <-timeout:
			return
		}
	}
}

func (s *Supervisor) children() []*Child {
	var out []*Child
	if s.radar != nil {
		out = append(out, s.radar)
	}
	if s.belt != nil {
		out = append(out, s.belt)
	}
	return out
}

func (s *Supervisor) startWatcher() {
	if !s.cfg.Outputs.Watch || len(s.cfg.Outputs.Expected) == 0 {
		return
	}

	w, err := outputs.NewWatcher(s.session.Dir, s.cfg.Outputs.Expected, s.logger.WithField("watch", "outputs"))
	if err != nil {
		s.logger.WithError(err).Warn("Output watcher disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.watcher = w
	s.stopObserving = cancel
	go w.Start(ctx)
}

func (s *Supervisor) startFollower() {
	if !s.cfg.Outputs.FollowBelt || !s.belt.Alive() {
		return
	}

	f, err := outputs.Follow(s.session.Path(s.session.BeltOutputName()), s.logger.WithField("follow", "belt"))
	if err != nil {
		s.logger.WithError(err).Warn("Belt follower disabled")
		return
	}
	s.follower = f
}

// stopObservers shuts down the watcher and follower and records which
// expected outputs never appeared. Safe to call more than once.
func (s *Supervisor) stopObservers() {
	if s.follower != nil {
		_ = s.follower.Stop()
		s.logger.WithField("rows", s.follower.Rows()).Debug("Belt follower stopped")
		s.follower = nil
	}
	if s.watcher != nil {
		if s.session.Exists() {
			s.watcher.Rescan()
			s.missing = s.watcher.Missing()
			for _, pattern := range s.missing {
				s.logger.WithField("pattern", pattern).Warn("Expected output file never appeared")
			}
		}
		s.stopObserving()
		if err := s.watcher.Close(); err != nil {
			s.logger.WithError(err).Debug("Output watcher close failed")
		}
		s.logger.WithField("files", s.watcher.Seen()).Debug("Output watcher stopped")
		s.watcher = nil
	}
}

func (s *Supervisor) writeManifest() {
	if s.session == nil || !s.session.Exists() {
		return
	}

	m := s.session.NewManifest()
	m.FinalState = s.State().String()
	m.MissingOutputs = s.missing
	m.BeltCleanEarly = s.beltCleanEarly
	for _, st := range s.childStatuses() {
		m.Children = append(m.Children, session.ChildRecord{
			Name:     st.Name,
			PID:      st.PID,
			Command:  st.Command,
			Exited:   st.Exited,
			ExitCode: st.ExitCode,
		})
	}
	if rows, err := outputs.CountDataRows(s.session.Path(s.session.BeltOutputName())); err == nil {
		m.BeltDataRows = rows
	}

	if err := s.session.WriteManifest(m); err != nil {
		s.logger.WithError(err).Warn("Failed to write session manifest")
	}
}

func (s *Supervisor) childStatuses() []ChildStatus {
	var out []ChildStatus
	for _, c := range s.children() {
		code, exited := c.ExitCode()
		out = append(out, ChildStatus{
			Name:     c.Name,
			PID:      c.PID(),
			Command:  c.Command.String(),
			Exited:   exited,
			ExitCode: code,
		})
	}
	return out
}

func (s *Supervisor) result() *Result {
	s.mu.Lock()
	res := &Result{
		State:   s.state,
		History: append([]State(nil), s.history...),
	}
	s.mu.Unlock()

	if s.session != nil {
		res.SessionID = s.session.ID
		res.Dir = s.session.Dir
		res.MarkedAt = s.session.MarkedAt()
	}
	res.Children = s.childStatuses()
	res.BeltCleanEarly = s.beltCleanEarly
	res.MissingOutputs = s.missing
	return res
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

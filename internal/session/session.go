// Package session owns the on-disk layout of one data-collection run: the
// timestamped directory, the two Unix timestamp files the sensor loggers
// align against, and the closing manifest.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/grovetools/sensorsession/errors"
	"github.com/grovetools/sensorsession/internal/timeutil"
)

// File names inside a session directory.
const (
	StartFileName    = "session_start_unix.txt"
	MarkerFileName   = "human_enter_time.txt"
	ManifestFileName = "session.yml"

	beltOutputSuffix = "_belt.csv"
)

// Options controls where and how a session directory is named.
type Options struct {
	BaseDir   string
	DirPrefix string
	IDFormat  string
}

// Session is one data-collection run.
type Session struct {
	ID        string
	Dir       string
	StartedAt time.Time

	clock timeutil.Clock

	mu       sync.Mutex
	markedAt time.Time
}

// Start derives the session id from the clock, creates the session
// directory and writes the start timestamp. Nothing is cleaned up on error;
// the caller is expected to abort.
func Start(opts Options, clock timeutil.Clock) (*Session, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	now := clock.Now()
	id := now.Format(opts.IDFormat)
	dir := filepath.Join(opts.BaseDir, opts.DirPrefix+id)

	if err := os.MkdirAll(opts.BaseDir, 0755); err != nil {
		return nil, errors.SessionDirFailed(dir, err)
	}
	// Mkdir rather than MkdirAll: two runs in the same second must not share
	// a directory.
	if err := os.Mkdir(dir, 0755); err != nil {
		return nil, errors.SessionDirFailed(dir, err)
	}

	s := &Session{ID: id, Dir: dir, StartedAt: now, clock: clock}
	if err := writeUnix(s.Path(StartFileName), now); err != nil {
		return nil, errors.SessionDirFailed(dir, err)
	}
	return s, nil
}

// Path joins name onto the session directory.
func (s *Session) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// RadarPrefix is the file name prefix handed to the radar logger.
func (s *Session) RadarPrefix() string {
	return s.ID
}

// BeltOutputName is the CSV file name handed to the belt logger.
func (s *Session) BeltOutputName() string {
	return s.ID + beltOutputSuffix
}

// RecordHumanMarker captures the current time as the operator's marker and
// writes it to human_enter_time.txt. It may only succeed once per session.
func (s *Session) RecordHumanMarker() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.markedAt.IsZero() {
		return time.Time{}, errors.New(errors.ErrCodeInvalidInput, "human marker already recorded").
			WithDetail("markedAt", s.markedAt.Unix())
	}

	now := s.clock.Now()
	path := s.Path(MarkerFileName)
	if err := writeUnix(path, now); err != nil {
		return time.Time{}, errors.SessionWriteFailed(path, err)
	}
	s.markedAt = now
	return now, nil
}

// MarkedAt returns the marker time, or the zero time if none was recorded.
func (s *Session) MarkedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markedAt
}

// Exists reports whether the session directory is still on disk.
func (s *Session) Exists() bool {
	info, err := os.Stat(s.Dir)
	return err == nil && info.IsDir()
}

// Remove deletes the session directory and everything in it.
func (s *Session) Remove() error {
	if err := os.RemoveAll(s.Dir); err != nil {
		return fmt.Errorf("failed to remove session directory %s: %w", s.Dir, err)
	}
	return nil
}

// ReadUnix parses a timestamp file written by Start or RecordHumanMarker.
func ReadUnix(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(trimNewline(data)), 10, 64)
}

func writeUnix(path string, t time.Time) error {
	return os.WriteFile(path, []byte(strconv.FormatInt(t.Unix(), 10)+"\n"), 0644)
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r' || b[len(b)-1] == ' ') {
		b = b[:len(b)-1]
	}
	return b
}

// Package outputs observes the files the sensor loggers write into a session
// directory.
package outputs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"
)

// Watcher reports files as they appear in a session directory and tracks
// which expected patterns have been satisfied.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	expected []expectedOutput
	logger   *logrus.Entry

	mu      sync.Mutex
	seen    map[string]bool
	matched map[string]string // pattern -> first matching file
	onFile  func(name string)
}

// expectedOutput pairs a configured pattern with a matcher of its own, so
// each pattern can be reported as satisfied or missing on its own.
type expectedOutput struct {
	pattern   string
	matcher   *patternmatcher.PatternMatcher
	exclusion bool
}

// NewWatcher starts watching dir. Each expected entry is a dockerignore-style
// pattern matched against file names relative to dir. Exclusions ("!x") are
// accepted but never reported missing.
func NewWatcher(dir string, expected []string, logger *logrus.Entry) (*Watcher, error) {
	var outs []expectedOutput
	for _, p := range expected {
		if p == "" {
			continue
		}
		pm, err := patternmatcher.New([]string{p})
		if err != nil {
			return nil, fmt.Errorf("invalid output pattern %q: %w", p, err)
		}
		outs = append(outs, expectedOutput{
			pattern:   p,
			matcher:   pm,
			exclusion: pm.Exclusions(),
		})
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Watcher{
		dir:      dir,
		watcher:  fsw,
		expected: outs,
		logger:   logger,
		seen:     make(map[string]bool),
		matched:  make(map[string]string),
	}, nil
}

// OnFile registers a callback invoked once per new file name.
func (w *Watcher) OnFile(fn func(name string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onFile = fn
}

// Start picks up files already present and then processes events. It blocks
// until the context is cancelled or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) {
	w.Rescan()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)

			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.record(filepath.Base(event.Name))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Rescan records any file in the directory that no event has reported yet.
func (w *Watcher) Rescan() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.WithError(err).Debug("rescan failed")
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.record(e.Name())
		}
	}
}

func (w *Watcher) record(name string) {
	w.mu.Lock()
	if w.seen[name] {
		w.mu.Unlock()
		return
	}
	w.seen[name] = true

	var hits []string
	for _, e := range w.expected {
		if e.exclusion {
			continue
		}
		ok, err := e.matcher.MatchesOrParentMatches(name)
		if err != nil || !ok {
			continue
		}
		if _, done := w.matched[e.pattern]; !done {
			w.matched[e.pattern] = name
		}
		hits = append(hits, e.pattern)
	}
	onFile := w.onFile
	w.mu.Unlock()

	if len(hits) > 0 {
		w.logger.WithField("patterns", hits).Infof("Output file appeared: %s", name)
	} else {
		w.logger.Debugf("Untracked file appeared: %s", name)
	}
	if onFile != nil {
		onFile(name)
	}
}

// Seen returns every file name observed so far, sorted.
func (w *Watcher) Seen() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.seen))
	for name := range w.seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing returns the expected patterns no observed file has matched, in
// configuration order.
func (w *Watcher) Missing() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var missing []string
	for _, e := range w.expected {
		if e.exclusion {
			continue
		}
		if _, ok := w.matched[e.pattern]; !ok {
			missing = append(missing, e.pattern)
		}
	}
	return missing
}

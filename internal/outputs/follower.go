package outputs

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/hpcloud/tail"
	"github.com/sirupsen/logrus"
)

// Follower tails a logger's CSV while the session runs. The file does not
// have to exist yet.
type Follower struct {
	path   string
	t      *tail.Tail
	logger *logrus.Entry

	rows      atomic.Int64
	firstRow  chan struct{}
	firstOnce sync.Once
	done      chan struct{}
}

// Follow starts tailing path from the beginning.
func Follow(path string, logger *logrus.Entry) (*Follower, error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekStart},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	f := &Follower{
		path:     path,
		t:        t,
		logger:   logger,
		firstRow: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go f.run()
	return f, nil
}

func (f *Follower) run() {
	defer close(f.done)

	header := true
	for line := range f.t.Lines {
		if line.Err != nil {
			f.logger.WithError(line.Err).Debug("tail error")
			continue
		}
		if isBlank(line.Text) {
			continue
		}
		if header {
			header = false
			f.logger.Debugf("Header: %s", line.Text)
			continue
		}

		n := f.rows.Add(1)
		f.firstOnce.Do(func() {
			f.logger.Infof("First data row in %s", f.path)
			close(f.firstRow)
		})
		f.logger.WithField("row", n).Debug(line.Text)
	}
}

// Rows returns the number of data rows seen so far.
func (f *Follower) Rows() int {
	return int(f.rows.Load())
}

// FirstRow is closed when the first data row arrives.
func (f *Follower) FirstRow() <-chan struct{} {
	return f.firstRow
}

// Stop ends tailing and waits for the reader goroutine.
func (f *Follower) Stop() error {
	err := f.t.Stop()
	<-f.done
	f.t.Cleanup()
	return err
}

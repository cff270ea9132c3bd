// Package serialprobe checks that the radar's serial device is attached
// before the loggers are launched. It only enumerates; it never opens a port,
// since the radar logger needs exclusive access.
package serialprobe

import (
	"os"
	"path/filepath"
	"sort"

	"go.bug.st/serial"
)

// Lister enumerates serial ports.
type Lister func() ([]string, error)

// Prober answers whether a serial device is present.
type Prober struct {
	list Lister
	stat func(string) (os.FileInfo, error)
}

// New returns a Prober backed by go.bug.st/serial.
func New() *Prober {
	return NewWithLister(serial.GetPortsList)
}

// NewWithLister returns a Prober that uses list to enumerate ports.
func NewWithLister(list Lister) *Prober {
	return &Prober{list: list, stat: os.Stat}
}

// Ports returns the detected serial ports, sorted.
func (p *Prober) Ports() ([]string, error) {
	ports, err := p.list()
	if err != nil {
		return nil, err
	}
	sort.Strings(ports)
	return ports, nil
}

// Result is the outcome of a Check.
type Result struct {
	Port      string
	Present   bool
	Listed    bool
	Available []string
}

// Check looks port up in the enumeration. Stable aliases such as
// /dev/serial/by-id/... are not enumerated, so a device node that exists on
// disk also counts as present.
func (p *Prober) Check(port string) (Result, error) {
	res := Result{Port: port}

	ports, err := p.Ports()
	if err != nil {
		return res, err
	}
	res.Available = ports

	want := port
	if resolved, err := filepath.EvalSymlinks(port); err == nil {
		want = resolved
	}
	for _, candidate := range ports {
		if candidate == port || candidate == want {
			res.Listed = true
			res.Present = true
			return res, nil
		}
	}

	if info, err := p.stat(port); err == nil && info.Mode()&os.ModeDevice != 0 {
		res.Present = true
	}
	return res, nil
}

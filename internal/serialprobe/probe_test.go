package serialprobe

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticLister(ports ...string) Lister {
	return func() ([]string, error) { return ports, nil }
}

func TestPortsSorted(t *testing.T) {
	p := NewWithLister(staticLister("/dev/ttyUSB1", "/dev/ttyACM0", "/dev/ttyUSB0"))

	ports, err := p.Ports()
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/ttyACM0", "/dev/ttyUSB0", "/dev/ttyUSB1"}, ports)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		ports       []string
		port        string
		wantPresent bool
		wantListed  bool
	}{
		{"listed", []string{"/dev/ttyUSB0", "/dev/ttyACM0"}, "/dev/ttyUSB0", true, true},
		{"absent", []string{"/dev/ttyACM0"}, "/dev/ttyUSB0-does-not-exist", false, false},
		{"no ports at all", nil, "/dev/ttyUSB0-does-not-exist", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewWithLister(staticLister(tt.ports...)).Check(tt.port)
			require.NoError(t, err)
			assert.Equal(t, tt.port, res.Port)
			assert.Equal(t, tt.wantPresent, res.Present)
			assert.Equal(t, tt.wantListed, res.Listed)
			assert.Len(t, res.Available, len(tt.ports))
		})
	}
}

func TestCheckRegularFileIsNotADevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttyFAKE")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	res, err := NewWithLister(staticLister()).Check(path)
	require.NoError(t, err)
	assert.False(t, res.Present)
}

func TestCheckListerError(t *testing.T) {
	boom := errors.New("enumeration failed")
	p := NewWithLister(func() ([]string, error) { return nil, boom })

	_, err := p.Check("/dev/ttyUSB0")
	assert.ErrorIs(t, err, boom)
}

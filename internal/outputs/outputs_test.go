package outputs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountDataRows(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"header only", "Timestamp,Force\n", 0},
		{"empty", "", 0},
		{"rows", "Timestamp,Force\n1.0,2.0\n1.1,2.1\n", 2},
		{"blank lines ignored", "\nTimestamp,Force\n\n1.0,2.0\n   \n", 1},
		{"no trailing newline", "h\n1\n2", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "belt.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			got, err := CountDataRows(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountDataRowsMissingFile(t *testing.T) {
	_, err := CountDataRows(filepath.Join(t.TempDir(), "nope.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestWatcherTracksExpectedOutputs(t *testing.T) {
	dir := t.TempDir()
	// Present before the watcher starts.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session_start_unix.txt"), []byte("1\n"), 0644))

	w, err := NewWatcher(dir, []string{"*_radar.csv", "*_belt.csv"}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appeared := make(chan string, 8)
	w.OnFile(func(name string) { appeared <- name })
	go w.Start(ctx)

	waitFor(t, appeared, "session_start_unix.txt")
	assert.Equal(t, []string{"*_radar.csv", "*_belt.csv"}, w.Missing())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "20251211_121123_radar.csv"), []byte("h\n"), 0644))
	waitFor(t, appeared, "20251211_121123_radar.csv")

	assert.Equal(t, []string{"*_belt.csv"}, w.Missing())
	assert.Equal(t, []string{"20251211_121123_radar.csv", "session_start_unix.txt"}, w.Seen())
}

func TestWatcherPatternKinds(t *testing.T) {
	tests := []struct {
		name        string
		expected    []string
		files       []string
		wantMissing []string
	}{
		{
			name:        "glob satisfied",
			expected:    []string{"*_belt.csv"},
			files:       []string{"20251211_121123_belt.csv"},
			wantMissing: nil,
		},
		{
			name:        "exact name",
			expected:    []string{"session_start_unix.txt", "human_enter_time.txt"},
			files:       []string{"session_start_unix.txt"},
			wantMissing: []string{"human_enter_time.txt"},
		},
		{
			name:        "exclusions never reported",
			expected:    []string{"*.csv", "!*.tmp"},
			files:       []string{"notes.txt"},
			wantMissing: []string{"*.csv"},
		},
		{
			name:        "empty entries skipped",
			expected:    []string{"", "*_radar.csv"},
			files:       []string{"x_radar.csv"},
			wantMissing: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("h\n"), 0644))
			}

			w, err := NewWatcher(dir, tt.expected, nil)
			require.NoError(t, err)
			defer w.Close()

			w.Rescan()
			assert.Equal(t, tt.wantMissing, w.Missing())
			assert.ElementsMatch(t, tt.files, w.Seen())
		})
	}
}

func TestWatcherMissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "gone"), []string{"*.csv"}, nil)
	assert.Error(t, err)
}

func TestFollowerCountsRowsOfLateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x_belt.csv")

	f, err := Follow(path, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("Timestamp,Force\n0.1,3.2\n0.2,3.3\n"), 0644))

	select {
	case <-f.FirstRow():
	case <-time.After(5 * time.Second):
		t.Fatal("first row never observed")
	}

	assert.Eventually(t, func() bool { return f.Rows() == 2 }, 5*time.Second, 20*time.Millisecond)
	_ = f.Stop()
}

func waitFor(t *testing.T, ch <-chan string, name string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == name {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", name)
		}
	}
}

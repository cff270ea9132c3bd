package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/sensorsession/errors"
	"github.com/grovetools/sensorsession/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(base string) Options {
	return Options{BaseDir: base, DirPrefix: "session_", IDFormat: "20060102_150405"}
}

func TestStartCreatesDirectoryAndStartFile(t *testing.T) {
	base := t.TempDir()
	start := time.Date(2025, 12, 11, 12, 11, 23, 0, time.Local)
	clock := timeutil.NewMockClock(start)

	s, err := Start(testOptions(base), clock)
	require.NoError(t, err)

	assert.Equal(t, "20251211_121123", s.ID)
	assert.Equal(t, filepath.Join(base, "session_20251211_121123"), s.Dir)
	assert.True(t, s.Exists())

	got, err := ReadUnix(s.Path(StartFileName))
	require.NoError(t, err)
	assert.Equal(t, start.Unix(), got)

	raw, err := os.ReadFile(s.Path(StartFileName))
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), raw[len(raw)-1], "start file ends with a newline")
}

func TestStartRealClockWithinOneSecond(t *testing.T) {
	before := time.Now().Unix()
	s, err := Start(testOptions(t.TempDir()), nil)
	require.NoError(t, err)
	after := time.Now().Unix()

	got, err := ReadUnix(s.Path(StartFileName))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}

func TestStartCreatesMissingBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "data", "sessions")
	s, err := Start(testOptions(base), timeutil.NewMockClock(time.Now()))
	require.NoError(t, err)
	assert.True(t, s.Exists())
}

func TestStartFailsWhenBaseIsAFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(base, []byte("x"), 0644))

	_, err := Start(testOptions(base), timeutil.NewMockClock(time.Now()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeSessionDirCreate))
}

func TestStartFailsOnCollision(t *testing.T) {
	base := t.TempDir()
	clock := timeutil.NewMockClock(time.Date(2025, 12, 11, 12, 0, 0, 0, time.UTC))

	_, err := Start(testOptions(base), clock)
	require.NoError(t, err)

	_, err = Start(testOptions(base), clock)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeSessionDirCreate))
}

func TestRecordHumanMarkerOnce(t *testing.T) {
	start := time.Date(2025, 12, 11, 12, 11, 23, 0, time.UTC)
	clock := timeutil.NewMockClock(start)
	s, err := Start(testOptions(t.TempDir()), clock)
	require.NoError(t, err)

	assert.True(t, s.MarkedAt().IsZero())

	clock.Advance(7 * time.Second)
	marked, err := s.RecordHumanMarker()
	require.NoError(t, err)
	assert.Equal(t, start.Add(7*time.Second), marked)

	got, err := ReadUnix(s.Path(MarkerFileName))
	require.NoError(t, err)
	assert.Equal(t, start.Unix()+7, got)
	assert.Greater(t, got, s.StartedAt.Unix())

	clock.Advance(time.Second)
	_, err = s.RecordHumanMarker()
	require.Error(t, err)

	// The first value is kept.
	got, err = ReadUnix(s.Path(MarkerFileName))
	require.NoError(t, err)
	assert.Equal(t, start.Unix()+7, got)
}

func TestOutputNames(t *testing.T) {
	s := &Session{ID: "20251211_121123"}
	assert.Equal(t, "20251211_121123", s.RadarPrefix())
	assert.Equal(t, "20251211_121123_belt.csv", s.BeltOutputName())
}

func TestRemove(t *testing.T) {
	s, err := Start(testOptions(t.TempDir()), timeutil.NewMockClock(time.Now()))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path("partial_radar.csv"), []byte("Timestamp\n"), 0644))

	require.NoError(t, s.Remove())
	assert.False(t, s.Exists())
	// Removing again is harmless.
	assert.NoError(t, s.Remove())
}

func TestManifestRoundTrip(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2025, 12, 11, 12, 11, 23, 0, time.UTC))
	s, err := Start(testOptions(t.TempDir()), clock)
	require.NoError(t, err)

	clock.Advance(3 * time.Second)
	_, err = s.RecordHumanMarker()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(s.Path(s.BeltOutputName()), []byte("Timestamp\n1,2\n"), 0644))
	require.NoError(t, os.WriteFile(s.Path(s.ID+"_radar.csv"), []byte("Timestamp\n"), 0644))

	m := s.NewManifest()
	m.FinalState = "COMPLETED"
	m.Children = []ChildRecord{{Name: "belt", PID: 10, Command: "belt --out x", Exited: true, ExitCode: 0}}
	m.BeltDataRows = 1
	require.NoError(t, s.WriteManifest(m))

	got, err := ReadManifest(s.Dir)
	require.NoError(t, err)
	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, s.ID, got.SessionID)
	assert.Equal(t, s.StartedAt.Unix(), got.StartUnix)
	assert.Equal(t, s.StartedAt.Unix()+3, got.HumanEnterUnix)
	assert.Equal(t, "COMPLETED", got.FinalState)
	assert.Equal(t, []string{s.ID + "_belt.csv", s.ID + "_radar.csv"}, got.Outputs)
	require.Len(t, got.Children, 1)
	assert.Equal(t, "belt", got.Children[0].Name)
}

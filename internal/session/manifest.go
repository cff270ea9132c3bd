package session

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/grovetools/sensorsession/errors"
	"gopkg.in/yaml.v3"
)

// Manifest summarizes a finished session for later analysis.
type Manifest struct {
	RunID           string        `yaml:"run_id"`
	SessionID       string        `yaml:"session_id"`
	StartUnix       int64         `yaml:"start_unix"`
	HumanEnterUnix  int64         `yaml:"human_enter_unix,omitempty"`
	FinalState      string        `yaml:"final_state"`
	Children        []ChildRecord `yaml:"children"`
	Outputs         []string      `yaml:"outputs"`
	MissingOutputs  []string      `yaml:"missing_outputs,omitempty"`
	BeltDataRows    int           `yaml:"belt_data_rows"`
	BeltCleanEarly  bool          `yaml:"belt_clean_early_exit,omitempty"`
	SupervisorError string        `yaml:"supervisor_error,omitempty"`
}

// ChildRecord describes one logger process.
type ChildRecord struct {
	Name     string `yaml:"name"`
	PID      int    `yaml:"pid"`
	Command  string `yaml:"command"`
	Exited   bool   `yaml:"exited"`
	ExitCode int    `yaml:"exit_code"`
}

// NewManifest starts a manifest with a fresh run id and the session's
// timestamps filled in.
func (s *Session) NewManifest() Manifest {
	m := Manifest{
		RunID:     uuid.NewString(),
		SessionID: s.ID,
		StartUnix: s.StartedAt.Unix(),
	}
	if marked := s.MarkedAt(); !marked.IsZero() {
		m.HumanEnterUnix = marked.Unix()
	}
	return m
}

// WriteManifest writes session.yml. Output files are listed relative to the
// session directory, excluding the supervisor's own files.
func (s *Session) WriteManifest(m Manifest) error {
	if m.Outputs == nil {
		outputs, err := s.OutputFiles()
		if err != nil {
			return errors.SessionWriteFailed(s.Path(ManifestFileName), err)
		}
		m.Outputs = outputs
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode manifest")
	}
	path := s.Path(ManifestFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.SessionWriteFailed(path, err)
	}
	return nil
}

// ReadManifest loads session.yml from dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// OutputFiles lists the regular files the loggers wrote, sorted by name.
func (s *Session) OutputFiles() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}

	outputs := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch e.Name() {
		case StartFileName, MarkerFileName, ManifestFileName:
			continue
		}
		outputs = append(outputs, e.Name())
	}
	sort.Strings(outputs)
	return outputs, nil
}

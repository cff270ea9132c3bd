package config

import (
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Defaults reproduce the fixed behavior of the bench setup: a ten second belt
// startup window and a short pause after signalling children.
const (
	DefaultBaseDir        = "."
	DefaultDirPrefix      = "session_"
	DefaultIDFormat       = "20060102_150405"
	DefaultGracePeriod    = 10 * time.Second
	DefaultKillWait       = 200 * time.Millisecond
	DefaultPIDFile        = ".sensorsession.pid"
	DefaultElevateCommand = "sudo"
	DefaultRadarPort      = "/dev/ttyUSB0"
)

// Config is the root of sensorsession.yml.
type Config struct {
	Version    string                 `yaml:"version" toml:"version" json:"version" jsonschema:"description=Configuration version (e.g. '1.0')"`
	Session    SessionConfig          `yaml:"session" toml:"session" json:"session" envPrefix:"SESSION_" jsonschema:"description=Session directory and timing"`
	Radar      ChildConfig            `yaml:"radar" toml:"radar" json:"radar" envPrefix:"RADAR_" jsonschema:"description=Radar logger process"`
	Belt       ChildConfig            `yaml:"belt" toml:"belt" json:"belt" envPrefix:"BELT_" jsonschema:"description=Belt logger process"`
	Outputs    OutputsConfig          `yaml:"outputs" toml:"outputs" json:"outputs" envPrefix:"OUTPUTS_" jsonschema:"description=Observation of sensor output files"`
	Extensions map[string]interface{} `yaml:"extensions,omitempty" toml:"extensions,omitempty" json:"extensions,omitempty" jsonschema:"description=Free-form sections read by other components (e.g. logging)"`

	source string
}

// Source returns the path of the file the configuration was loaded from, or
// "" when only defaults and the environment applied.
func (c *Config) Source() string { return c.source }

// SessionConfig controls where sessions are created and how long the
// supervisor waits at each timed step.
type SessionConfig struct {
	BaseDir     string   `yaml:"base_dir" toml:"base_dir" json:"base_dir" env:"BASE_DIR" jsonschema:"description=Directory that receives session_<id> folders"`
	DirPrefix   string   `yaml:"dir_prefix" toml:"dir_prefix" json:"dir_prefix" env:"DIR_PREFIX" jsonschema:"description=Prefix of each session directory name"`
	IDFormat    string   `yaml:"id_format" toml:"id_format" json:"id_format" env:"ID_FORMAT" jsonschema:"description=Go time layout used to derive the session id"`
	GracePeriod Duration `yaml:"grace_period" toml:"grace_period" json:"grace_period" env:"GRACE_PERIOD" jsonschema:"description=Belt startup window before its exit status is judged"`
	KillWait    Duration `yaml:"kill_wait" toml:"kill_wait" json:"kill_wait" env:"KILL_WAIT" jsonschema:"description=How long to wait for children after SIGTERM"`
	PIDFile     string   `yaml:"pid_file" toml:"pid_file" json:"pid_file" env:"PID_FILE" jsonschema:"description=Lock file path relative to base_dir"`
}

// ChildConfig describes one sensor logger.
type ChildConfig struct {
	Program        string   `yaml:"program" toml:"program" json:"program" env:"PROGRAM" jsonschema:"description=Executable to launch"`
	Args           []string `yaml:"args" toml:"args" json:"args" env:"ARGS" envSeparator:" " jsonschema:"description=Arguments placed before the session-specific flag"`
	Elevate        bool     `yaml:"elevate" toml:"elevate" json:"elevate" env:"ELEVATE" jsonschema:"description=Run through elevate_command"`
	ElevateCommand string   `yaml:"elevate_command" toml:"elevate_command" json:"elevate_command" env:"ELEVATE_COMMAND" jsonschema:"description=Privilege wrapper (default sudo)"`
	SerialPort     string   `yaml:"serial_port" toml:"serial_port" json:"serial_port" env:"SERIAL_PORT" jsonschema:"description=Serial device checked before launch; empty disables the check"`
}

// OutputsConfig controls observation of the files the children write.
type OutputsConfig struct {
	Watch      bool     `yaml:"watch" toml:"watch" json:"watch" env:"WATCH" jsonschema:"description=Watch the session directory for new files"`
	Expected   []string `yaml:"expected" toml:"expected" json:"expected" env:"EXPECTED" envSeparator:"," jsonschema:"description=Patterns every complete session should produce"`
	FollowBelt bool     `yaml:"follow_belt" toml:"follow_belt" json:"follow_belt" env:"FOLLOW_BELT" jsonschema:"description=Follow the belt CSV while the session runs"`
}

// Duration is a time.Duration that reads and writes as "10s", "200ms", etc.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// JSONSchema describes Duration as a Go duration string.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		Description: "Go duration string such as 10s or 200ms",
	}
}

// Default returns a configuration with every default applied. Files,
// environment variables and flags are layered on top of it.
func Default() *Config {
	return &Config{
		Version: "1.0",
		Session: SessionConfig{
			BaseDir:     DefaultBaseDir,
			DirPrefix:   DefaultDirPrefix,
			IDFormat:    DefaultIDFormat,
			GracePeriod: Duration(DefaultGracePeriod),
			KillWait:    Duration(DefaultKillWait),
			PIDFile:     DefaultPIDFile,
		},
		Radar: ChildConfig{
			Program:        "python3",
			Args:           []string{"xm125_breathing_refapp_pi_v1.py"},
			ElevateCommand: DefaultElevateCommand,
			SerialPort:     DefaultRadarPort,
		},
		Belt: ChildConfig{
			Program: "python3",
			Args:    []string{"belt_logger.py"},
			// The GDX belt needs raw USB access.
			Elevate:        true,
			ElevateCommand: DefaultElevateCommand,
		},
		Outputs: OutputsConfig{
			Watch:      true,
			Expected:   []string{"*_radar.csv", "*_belt.csv"},
			FollowBelt: true,
		},
	}
}

// SetDefaults fills string fields a layer may have blanked out. Numeric and
// boolean fields are left alone so that Validate can reject bad values.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Session.BaseDir == "" {
		c.Session.BaseDir = DefaultBaseDir
	}
	if c.Session.IDFormat == "" {
		c.Session.IDFormat = DefaultIDFormat
	}
	if c.Session.PIDFile == "" {
		c.Session.PIDFile = DefaultPIDFile
	}
	if c.Radar.ElevateCommand == "" {
		c.Radar.ElevateCommand = DefaultElevateCommand
	}
	if c.Belt.ElevateCommand == "" {
		c.Belt.ElevateCommand = DefaultElevateCommand
	}
}

// UnmarshalExtension decodes a specific extension's configuration into the
// provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}

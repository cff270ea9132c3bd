package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/sensorsession/errors"
	"github.com/grovetools/sensorsession/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames lists the file names searched for, in order of preference.
var configNames = []string{
	"sensorsession.yml",
	"sensorsession.yaml",
	".sensorsession.yml",
	".sensorsession.yaml",
	"sensorsession.toml",
}

// Format identifies a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the syntax from the file extension.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Load reads the configuration file at path, layered over the defaults,
// followed by any override file and the environment.
func Load(path string) (*Config, error) {
	return load(path, logrus.StandardLogger())
}

// LoadDefault loads configuration discovered from the current directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadFrom(cwd)
}

// LoadFrom discovers a configuration file starting at startDir. A missing
// file is not an error: defaults and the environment still apply.
func LoadFrom(startDir string) (*Config, error) {
	return LoadFromWithLogger(startDir, logrus.StandardLogger())
}

// LoadFromWithLogger is LoadFrom with debug output sent to logger.
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	path, err := FindConfigFile(startDir)
	if err != nil {
		if errors.Is(err, errors.ErrCodeConfigNotFound) {
			logger.WithField("searchPath", startDir).Debug("No configuration file found, using defaults")
			return load("", logger)
		}
		return nil, err
	}
	return load(path, logger)
}

func load(path string, logger *logrus.Logger) (*Config, error) {
	cfg := Default()

	if path != "" {
		logger.WithField("path", path).Debug("Loading configuration")
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
		if err := applyOverrides(path, cfg, logger); err != nil {
			return nil, err
		}
		cfg.source = path
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read environment overrides")
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		if data, err := yaml.Marshal(cfg); err == nil {
			logger.Debugf("Merged configuration:\n%s", string(data))
		}
	}

	return cfg, nil
}

// LoadFromBytes parses configuration data over the defaults. The environment
// is not consulted.
func LoadFromBytes(data []byte, format Format) (*Config, error) {
	cfg := Default()
	if err := decodeInto(data, format, cfg, "<bytes>"); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config").
			WithDetail("path", path)
	}
	return decodeInto(data, FormatFor(path), cfg, path)
}

// decodeInto checks the raw document against the schema and then decodes it
// over cfg, so keys absent from the document keep their current values.
func decodeInto(data []byte, format Format, cfg *Config, name string) error {
	expanded := []byte(expandEnvVars(string(data)))
	if len(bytes.TrimSpace(expanded)) == 0 {
		return nil
	}

	var raw interface{}
	if err := unmarshal(expanded, format, &raw); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config").
			WithDetail("path", name)
	}
	validator, err := NewSchemaValidator()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build config schema")
	}
	if err := validator.Validate(raw); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "config does not match schema").
			WithDetail("path", name)
	}

	if err := unmarshal(expanded, format, cfg); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config").
			WithDetail("path", name)
	}
	return nil
}

func unmarshal(data []byte, format Format, target interface{}) error {
	if format == FormatTOML {
		return toml.Unmarshal(data, target)
	}
	return yaml.Unmarshal(data, target)
}

// applyOverrides layers sensorsession.override.{yml,yaml,toml} from the
// directory of the base file.
func applyOverrides(basePath string, cfg *Config, logger *logrus.Logger) error {
	dir := filepath.Dir(basePath)
	overrides := []string{
		filepath.Join(dir, "sensorsession.override.yml"),
		filepath.Join(dir, "sensorsession.override.yaml"),
		filepath.Join(dir, "sensorsession.override.toml"),
	}

	for _, overridePath := range overrides {
		if _, err := os.Stat(overridePath); err != nil {
			continue
		}
		logger.WithField("path", overridePath).Debug("Loading local override configuration")
		if err := decodeFile(overridePath, cfg); err != nil {
			return fmt.Errorf("override %s: %w", overridePath, err)
		}
	}
	return nil
}

// FindConfigFile searches from startDir up to the filesystem root, then the
// user configuration directory.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if userDir := paths.ConfigDir(); userDir != "" {
		for _, name := range configNames {
			path := filepath.Join(userDir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

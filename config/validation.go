package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/grovetools/sensorsession/errors"
)

// Validate performs semantic checks on a fully layered configuration.
func (c *Config) Validate() error {
	if c.Session.GracePeriod <= 0 {
		return errors.ConfigInvalid("session.grace_period must be positive").
			WithDetail("grace_period", c.Session.GracePeriod.String())
	}
	if c.Session.KillWait < 0 {
		return errors.ConfigInvalid("session.kill_wait must not be negative").
			WithDetail("kill_wait", c.Session.KillWait.String())
	}
	if err := validateIDFormat(c.Session.IDFormat); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid session.id_format").
			WithDetail("id_format", c.Session.IDFormat)
	}
	if strings.ContainsAny(c.Session.DirPrefix, `/\`) {
		return errors.ConfigInvalid("session.dir_prefix must not contain path separators").
			WithDetail("dir_prefix", c.Session.DirPrefix)
	}

	for name, child := range map[string]ChildConfig{"radar": c.Radar, "belt": c.Belt} {
		if strings.TrimSpace(child.Program) == "" {
			return errors.ConfigInvalid(fmt.Sprintf("%s.program is required", name)).
				WithDetail("child", name)
		}
		if child.Elevate && strings.TrimSpace(child.ElevateCommand) == "" {
			return errors.ConfigInvalid(fmt.Sprintf("%s.elevate_command is required when elevate is set", name)).
				WithDetail("child", name)
		}
	}

	for _, pattern := range c.Outputs.Expected {
		if strings.TrimSpace(pattern) == "" {
			return errors.ConfigInvalid("outputs.expected must not contain empty patterns")
		}
	}

	return nil
}

// validateIDFormat rejects layouts that would produce an empty id, a path
// separator, or a constant string (which would collide on every run).
func validateIDFormat(layout string) error {
	a := time.Date(2025, 12, 11, 12, 11, 23, 0, time.UTC)
	b := a.Add(time.Second)

	id := a.Format(layout)
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("layout %q produces an empty id", layout)
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("layout %q produces %q, which is not a valid directory name", layout, id)
	}
	if id == b.Format(layout) {
		return fmt.Errorf("layout %q does not change from second to second", layout)
	}
	return nil
}

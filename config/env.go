package config

import (
	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment override, e.g.
// SENSORSESSION_SESSION_GRACE_PERIOD=5s or SENSORSESSION_BELT_ELEVATE=false.
const EnvPrefix = "SENSORSESSION_"

// ApplyEnv overlays SENSORSESSION_* variables onto cfg. Unset variables leave
// the current values in place.
func ApplyEnv(cfg *Config) error {
	return env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix})
}

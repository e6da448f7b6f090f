// Package config decodes the daemon's startup configuration (worker
// count, scheduler policy, queue capacities) from TOML, matching the
// corpus's convention of decoding structured config rather than
// hand-parsing flags.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"code.hybscloud.com/netfab/scheduler"
)

// Config is the daemon's startup configuration.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Log    LogConfig    `toml:"log"`
}

// EngineConfig configures the worker engine (spec.md §4.4, §4.5).
type EngineConfig struct {
	Workers       int    `toml:"workers"`
	Scheduler     string `toml:"scheduler"`
	QueueCapacity int    `toml:"queue_capacity"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns a Config with sane defaults, used when no config file
// is supplied or a field is left unset.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Workers:       4,
			Scheduler:     "random-cpu",
			QueueCapacity: 1024,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads and decodes path, filling unset fields from Default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %q", path)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: decode %q", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks the config against the engine's requirements: a positive
// worker count, a positive queue capacity, and a registered scheduler
// policy name.
func (c Config) Validate() error {
	if c.Engine.Workers <= 0 {
		return errors.New("config: engine.workers must be positive")
	}
	if c.Engine.QueueCapacity <= 0 {
		return errors.New("config: engine.queue_capacity must be positive")
	}
	found := false
	for _, name := range scheduler.Names() {
		if name == c.Engine.Scheduler {
			found = true
			break
		}
	}
	if !found {
		return errors.Errorf("config: unknown scheduler policy %q", c.Engine.Scheduler)
	}
	return nil
}

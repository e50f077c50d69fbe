// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Tracker  TrackerConfig  `toml:"tracker"`
	Schedule ScheduleConfig `toml:"schedule"`
	Audio    AudioConfig    `toml:"audio"`
	Device   DeviceConfig   `toml:"device"`
	Log      LogConfig      `toml:"log"`
}

// TrackerConfig maps session and completion settings.
type TrackerConfig struct {
	Completion         *Duration `toml:"completion"`
	PollInterval       *Duration `toml:"poll-interval"`
	PulsePeriod        *Duration `toml:"pulse-period"`
	SessionPulsePeriod *Duration `toml:"session-pulse-period"`
}

// ScheduleConfig maps the daily rollover schedule.
type ScheduleConfig struct {
	Rollover *string `toml:"rollover"`
}

// AudioConfig maps audio cue settings.
type AudioConfig struct {
	AssetsDir *string   `toml:"assets-dir"`
	Player    *string   `toml:"player"`
	Fade      *Duration `toml:"fade"`
}

// DeviceConfig maps indicator strip settings.
type DeviceConfig struct {
	SweepCycles *int `toml:"sweep-cycles"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// Duration decodes TOML strings such as "5m" or "300ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

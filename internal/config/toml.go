// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied for any setting missing from the config file.
const (
	DefaultTimer      = 120
	DefaultCountdown  = 3
	DefaultLocale     = "en"
	DefaultSound      = true
	DefaultFeedbackMs = 600
	DefaultTilt       = true
)

// DurationOptions are the round lengths surfaced by the picker, in seconds.
var DurationOptions = []int{60, 90, 120}

// FileConfig represents the TOML configuration file. Fields are pointers
// so an unset key falls back to its default.
type FileConfig struct {
	Game GameConfig `toml:"game"`
}

// GameConfig maps game-related settings.
type GameConfig struct {
	Timer      *int    `toml:"timer"`
	Countdown  *int    `toml:"countdown"`
	Locale     *string `toml:"locale"`
	Sound      *bool   `toml:"sound"`
	FeedbackMs *int    `toml:"feedback-ms"`
	Tilt       *bool   `toml:"tilt"`
}

// Settings are the effective game preferences after defaults and file
// values are merged.
type Settings struct {
	Timer      int
	Countdown  int
	Locale     string
	Sound      bool
	FeedbackMs int
	Tilt       bool
}

// FeedbackDuration returns the feedback pulse length.
func (s Settings) FeedbackDuration() time.Duration {
	return time.Duration(s.FeedbackMs) * time.Millisecond
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		Timer:      DefaultTimer,
		Countdown:  DefaultCountdown,
		Locale:     DefaultLocale,
		Sound:      DefaultSound,
		FeedbackMs: DefaultFeedbackMs,
		Tilt:       DefaultTilt,
	}
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

// Merge overlays file values onto the defaults. Invalid values are
// ignored in favor of the default.
func (f FileConfig) Merge() Settings {
	s := DefaultSettings()
	if v := f.Game.Timer; v != nil && *v > 0 {
		s.Timer = *v
	}
	if v := f.Game.Countdown; v != nil && *v >= 0 {
		s.Countdown = *v
	}
	if v := f.Game.Locale; v != nil && *v != "" {
		s.Locale = *v
	}
	if v := f.Game.Sound; v != nil {
		s.Sound = *v
	}
	if v := f.Game.FeedbackMs; v != nil && *v > 0 {
		s.FeedbackMs = *v
	}
	if v := f.Game.Tilt; v != nil {
		s.Tilt = *v
	}
	return s
}

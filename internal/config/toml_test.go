package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("missing config must not be an error: %v", err)
	}
	s := cfg.Merge()
	if s != DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", s)
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[game]\ntimer = 60\nsound = false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	s := cfg.Merge()
	if s.Timer != 60 {
		t.Fatalf("expected timer 60, got %d", s.Timer)
	}
	if s.Sound {
		t.Fatalf("expected sound disabled")
	}
	// Unset keys keep defaults.
	if s.Countdown != DefaultCountdown || s.Locale != DefaultLocale || s.FeedbackMs != DefaultFeedbackMs {
		t.Fatalf("unexpected merged settings: %+v", s)
	}
}

func TestMergeRejectsInvalidValues(t *testing.T) {
	bad := -5
	empty := ""
	cfg := FileConfig{Game: GameConfig{Timer: &bad, FeedbackMs: &bad, Locale: &empty}}
	s := cfg.Merge()
	if s.Timer != DefaultTimer || s.FeedbackMs != DefaultFeedbackMs || s.Locale != DefaultLocale {
		t.Fatalf("invalid values must fall back to defaults: %+v", s)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

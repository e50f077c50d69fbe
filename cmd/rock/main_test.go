package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/rock/internal/config"
	"github.com/verte-zerg/rock/internal/model"
)

func validConfig() model.Config {
	return model.Config{
		Completion:         defaultCompletion,
		PollInterval:       defaultPollInterval,
		PulsePeriod:        defaultPulsePeriod,
		SessionPulsePeriod: defaultSessionPulsePeriod,
		Rollover:           defaultRollover,
		SweepCycles:        defaultSweepCycles,
		Fade:               defaultFade,
	}
}

func TestValidateConfig(t *testing.T) {
	if err := validateConfig(validConfig()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	tests := []struct {
		name   string
		mutate func(*model.Config)
	}{
		{"completion", func(c *model.Config) { c.Completion = 0 }},
		{"poll", func(c *model.Config) { c.PollInterval = -time.Second }},
		{"pulse", func(c *model.Config) { c.SessionPulsePeriod = 0 }},
		{"sweep", func(c *model.Config) { c.SweepCycles = -1 }},
		{"fade", func(c *model.Config) { c.Fade = -time.Millisecond }},
		{"rollover", func(c *model.Config) { c.Rollover = " " }},
	}
	for _, tt := range tests {
		cfg := validConfig()
		tt.mutate(&cfg)
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	var poll, completion time.Duration
	cmd.Flags().DurationVar(&poll, "poll", time.Second, "")
	cmd.Flags().DurationVar(&completion, "completion", time.Minute, "")
	if err := cmd.Flags().Set("poll", "2s"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	applyDurationConfig(cmd, "poll", &poll, &config.Duration{Duration: time.Hour})
	applyDurationConfig(cmd, "completion", &completion, &config.Duration{Duration: 10 * time.Minute})
	if poll != 2*time.Second {
		t.Fatalf("flag should win over config, got %v", poll)
	}
	if completion != 10*time.Minute {
		t.Fatalf("config should fill unset flag, got %v", completion)
	}
	applyDurationConfig(cmd, "completion", &completion, nil)
	if completion != 10*time.Minute {
		t.Fatalf("nil config value should be ignored, got %v", completion)
	}
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Tracker.Completion != nil || cfg.Schedule.Rollover != nil {
		t.Fatalf("template values should be commented out: %+v", cfg)
	}
}

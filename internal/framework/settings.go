package framework

import (
	"context"
	"fmt"

	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/registry"
)

// Settings controls one run of the event loop.
type Settings struct {
	Events        int64    `prop:"events"`
	Sequence      []string `prop:"sequence"`
	Workers       int      `prop:"workers"`
	OutputLevel   string   `prop:"output_level"`
	StopOnError   bool     `prop:"stop_on_error"`
	ProgressEvery int64    `prop:"progress_every"`
}

// SettingsFrom reads the effective settings from the application instance.
func SettingsFrom(ctx context.Context, reg *registry.Registry) (Settings, error) {
	var s Settings
	inst, ok := reg.Instance(config.ApplicationName)
	if !ok {
		return s, fmt.Errorf("the %s instance '%s' is not configured", config.ApplicationType, config.ApplicationName)
	}
	if reg.Converter() == nil {
		return s, fmt.Errorf("registry is not configured")
	}
	if err := reg.Converter().DecodeProperties(ctx, &s, inst.Values(), inst.Definition.Properties); err != nil {
		return s, fmt.Errorf("application settings: %w", err)
	}
	if s.Workers < 1 {
		return s, fmt.Errorf("application settings: workers must be at least 1, got %d", s.Workers)
	}
	if s.Events < -1 {
		return s, fmt.Errorf("application settings: events must be -1 or more, got %d", s.Events)
	}
	return s, nil
}

package app

import (
	"context"
	"fmt"

	"github.com/vk/gridlaunch/internal/framework"
)

// Run starts the health check server when configured and hands control to
// the event loop. It blocks until the loop returns.
func (a *App) Run(ctx context.Context) (framework.Status, error) {
	ctx = a.Context(ctx)
	a.logger.Debug("App.Run method started.")

	if err := a.SyncLogLevel(); err != nil {
		return framework.StatusConfigError, err
	}
	settings, err := framework.SettingsFrom(ctx, a.registry)
	if err != nil {
		return framework.StatusConfigError, err
	}

	loop := framework.New(a.registry, settings)
	a.loop.Store(loop)

	if a.config.HealthcheckPort > 0 {
		if err := a.startHealthCheckServer(ctx, a.config.HealthcheckPort); err != nil {
			return framework.StatusFailure, err
		}
		defer a.closeHealthCheckServer(ctx)
	}

	status, err := loop.Run(ctx)
	if err != nil {
		err = fmt.Errorf("run %s: %w", status, err)
	}
	a.logger.Debug("App.Run method finished.", "status", status.String())
	return status, err
}

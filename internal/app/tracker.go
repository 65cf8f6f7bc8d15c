package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/location_viewer/internal/config"
	"github.com/relabs-tech/location_viewer/internal/logging"
	"github.com/relabs-tech/location_viewer/internal/session"
)

// RunTracker starts a tracking session and prints viewport updates until
// interrupted.
func RunTracker(useFeed bool) error {
	cfg := config.Get()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	primary, secondary := buildProviders(cfg, logger)
	ctrl := session.New(primary, secondary, defaultRegion(cfg), consoleBinding{}, logger)
	defer ctrl.Close()

	if useFeed {
		if err := ctrl.SwitchProvider(); err != nil {
			return err
		}
	}

	if err := ctrl.StartTracking(); err != nil {
		return err
	}
	logger.Infof("tracking via %s; Ctrl+C to stop", ctrl.ActiveProvider())

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("tracker: shutting down")
	ctrl.StopTracking()
	return nil
}

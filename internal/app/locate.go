package app

import (
	"context"
	"fmt"

	"github.com/relabs-tech/location_viewer/internal/config"
	"github.com/relabs-tech/location_viewer/internal/logging"
	"github.com/relabs-tech/location_viewer/internal/session"
)

// RunLocate resolves a single fix through the session and prints it. With
// useFeed the secondary backend answers instead of the receiver.
func RunLocate(useFeed bool) error {
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

	logger.Infof("requesting one fix via %s", ctrl.ActiveProvider())
	if err := ctrl.RequestOnce(context.Background()); err != nil {
		return err
	}

	s := ctrl.Snapshot()
	fmt.Printf(
		"[FIX ]  lat=%.6f lon=%.6f speed=%.1fm/s heading=%.1f° time=%s\n",
		s.LastFix.Latitude, s.LastFix.Longitude,
		s.LastFix.Speed, s.LastFix.Heading, s.LastFix.Time.Format("15:04:05"),
	)
	return nil
}

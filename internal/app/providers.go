package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/location_viewer/internal/config"
	"github.com/relabs-tech/location_viewer/internal/geo"
	"github.com/relabs-tech/location_viewer/internal/provider"
)

// buildProviders wires the two backends of the session from config. The
// primary is normally the serial receiver; PRIMARY_SOURCE=mock substitutes
// the synthetic track for development without hardware.
func buildProviders(cfg *config.Config, log *zap.SugaredLogger) (primary, secondary provider.Provider) {
	switch cfg.PrimarySource {
	case "mock":
		primary = provider.NewMockProvider(defaultCenter(cfg))
	default:
		primary = provider.NewSerialProvider(serialOptions(cfg), log)
	}

	secondary = provider.NewFeedProvider(provider.FeedOptions{
		Broker:      cfg.MQTTBroker,
		ClientID:    cfg.MQTTClientIDViewer,
		Topic:       cfg.TopicLocation,
		MinDistance: cfg.FeedMinDistanceM,
		OnceTimeout: time.Duration(cfg.OneshotTimeoutMS) * time.Millisecond,
		MaxFixAge:   time.Duration(cfg.OneshotMaxAgeMS) * time.Millisecond,
	}, log)

	return primary, secondary
}

func serialOptions(cfg *config.Config) provider.SerialOptions {
	return provider.SerialOptions{
		Port:        cfg.SerialPort,
		BaudRate:    cfg.SerialBaudRate,
		MinInterval: time.Duration(cfg.WatchMinIntervalMS) * time.Millisecond,
		MinDistance: cfg.WatchMinDistanceM,
	}
}

func defaultCenter(cfg *config.Config) geo.Coordinate {
	return geo.Coordinate{Latitude: cfg.DefaultLat, Longitude: cfg.DefaultLon}
}

// defaultRegion is what the screen shows before the first fix.
func defaultRegion(cfg *config.Config) geo.Region {
	return geo.Region{
		Center:         defaultCenter(cfg),
		LatitudeDelta:  cfg.DefaultLatDelta,
		LongitudeDelta: cfg.DefaultLonDelta,
	}
}

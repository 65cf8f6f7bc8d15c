package app

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/location_viewer/internal/config"
	"github.com/relabs-tech/location_viewer/internal/geo"
	"github.com/relabs-tech/location_viewer/internal/logging"
	"github.com/relabs-tech/location_viewer/internal/provider"
)

// RunFeedBridge reads the serial receiver and republishes every fix to the
// location topic, so the feed backend has data even when nothing else
// publishes there.
func RunFeedBridge() error {
	cfg := config.Get()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	src := provider.NewSerialProvider(serialOptions(cfg), logger)
	return runFeedPublisher(src, cfg.MQTTClientIDBridge, logger)
}

// RunFeedSimulator publishes a synthetic track to the location topic, for
// developing against the feed backend without a receiver.
func RunFeedSimulator() error {
	cfg := config.Get()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	src := provider.NewMockProvider(defaultCenter(cfg))
	return runFeedPublisher(src, cfg.MQTTClientIDSimulator, logger)
}

// runFeedPublisher watches src and publishes each fix as retained JSON; the
// retained message is the feed backend's location cache.
func runFeedPublisher(src provider.Provider, clientID string, logger *zap.SugaredLogger) error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	logger.Infof("%s connected to MQTT broker at %s", clientID, cfg.MQTTBroker)

	w, err := src.StartWatch(
		func(fix geo.Coordinate) {
			payload, err := json.Marshal(fix)
			if err != nil {
				logger.Warnf("%s: marshal error: %v", clientID, err)
				return
			}
			token := client.Publish(cfg.TopicLocation, 0, true, payload)
			token.Wait()
			if token.Error() != nil {
				logger.Warnf("%s: publish error: %v", clientID, token.Error())
				return
			}
			logger.Infof("%s: published fix lat=%.6f lon=%.6f", clientID, fix.Latitude, fix.Longitude)
		},
		func(err error) {
			logger.Warnf("%s: source error: %v", clientID, err)
		},
	)
	if err != nil {
		return err
	}
	defer w.Stop()

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Infof("%s: shutting down", clientID)
	client.Disconnect(250)
	return nil
}

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT location feed
	MQTTBroker            string
	MQTTClientIDViewer    string
	MQTTClientIDBridge    string
	MQTTClientIDSimulator string
	TopicLocation         string

	// Serial NMEA receiver
	SerialPort     string
	SerialBaudRate uint

	// Primary source selection: "serial" or "mock"
	PrimarySource string

	// Watch filters
	WatchMinIntervalMS int     // serial: minimum ms between fixes
	WatchMinDistanceM  float64 // serial: movement that bypasses the interval
	FeedMinDistanceM   float64 // feed: minimum movement between fixes

	// One-shot behavior of the feed backend
	OneshotTimeoutMS int
	OneshotMaxAgeMS  int // retained fixes older than this are stale

	// Default viewport before the first fix
	DefaultLat      float64
	DefaultLon      float64
	DefaultLatDelta float64
	DefaultLonDelta float64

	// Web server
	WebServerPort int

	// Logging
	LogLevel  string
	LogFormat string // "console" or "json"
}

// Package-level unexported variables for the singleton: globalConfig is only
// set through InitGlobal (guarded by configOnce and the write lock) and only
// read through Get (read lock).
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// defaults returns a config pre-filled with the tunables' documented
// defaults; the file only has to name what differs.
func defaults() *Config {
	return &Config{
		MQTTClientIDViewer:    "location-viewer",
		MQTTClientIDBridge:    "location-feed-bridge",
		MQTTClientIDSimulator: "location-feed-simulator",
		TopicLocation:         "location/fix",
		SerialBaudRate:        9600,
		PrimarySource:         "serial",
		WatchMinIntervalMS:    5000,
		WatchMinDistanceM:     10,
		FeedMinDistanceM:      10,
		OneshotTimeoutMS:      15000,
		OneshotMaxAgeMS:       10000,
		DefaultLat:            50.4501,
		DefaultLon:            30.5234,
		DefaultLatDelta:       0.05,
		DefaultLonDelta:       0.05,
		WebServerPort:         8080,
		LogLevel:              "info",
		LogFormat:             "console",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_VIEWER":
		c.MQTTClientIDViewer = value
	case "MQTT_CLIENT_ID_BRIDGE":
		c.MQTTClientIDBridge = value
	case "MQTT_CLIENT_ID_SIMULATOR":
		c.MQTTClientIDSimulator = value
	case "TOPIC_LOCATION":
		c.TopicLocation = value

	// Serial receiver
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = uint(rate)

	case "PRIMARY_SOURCE":
		if value != "serial" && value != "mock" {
			return fmt.Errorf("PRIMARY_SOURCE must be \"serial\" or \"mock\", got %q", value)
		}
		c.PrimarySource = value

	// Watch filters
	case "WATCH_MIN_INTERVAL_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WATCH_MIN_INTERVAL_MS %q: %w", value, err)
		}
		c.WatchMinIntervalMS = ms
	case "WATCH_MIN_DISTANCE_M":
		m, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid WATCH_MIN_DISTANCE_M %q: %w", value, err)
		}
		c.WatchMinDistanceM = m
	case "FEED_MIN_DISTANCE_M":
		m, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid FEED_MIN_DISTANCE_M %q: %w", value, err)
		}
		c.FeedMinDistanceM = m

	// One-shot
	case "ONESHOT_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ONESHOT_TIMEOUT_MS %q: %w", value, err)
		}
		c.OneshotTimeoutMS = ms
	case "ONESHOT_MAX_AGE_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ONESHOT_MAX_AGE_MS %q: %w", value, err)
		}
		c.OneshotMaxAgeMS = ms

	// Default viewport
	case "DEFAULT_LAT":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid DEFAULT_LAT %q: %w", value, err)
		}
		c.DefaultLat = v
	case "DEFAULT_LON":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid DEFAULT_LON %q: %w", value, err)
		}
		c.DefaultLon = v
	case "DEFAULT_LAT_DELTA":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid DEFAULT_LAT_DELTA %q: %w", value, err)
		}
		c.DefaultLatDelta = v
	case "DEFAULT_LON_DELTA":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid DEFAULT_LON_DELTA %q: %w", value, err)
		}
		c.DefaultLonDelta = v

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Logging
	case "LOG_LEVEL":
		c.LogLevel = value
	case "LOG_FORMAT":
		c.LogFormat = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicLocation == "" {
		return fmt.Errorf("TOPIC_LOCATION is required")
	}
	if c.PrimarySource == "serial" && c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required when PRIMARY_SOURCE=serial")
	}
	if c.DefaultLatDelta <= 0 || c.DefaultLonDelta <= 0 {
		return fmt.Errorf("default viewport deltas must be positive")
	}
	if c.WebServerPort == 0 {
		return fmt.Errorf("WEB_SERVER_PORT is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Uses sync.Once
// so repeated calls are harmless.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be called
// first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

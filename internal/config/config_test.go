package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "viewer_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full file", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
# viewer config
MQTT_BROKER=tcp://localhost:1883
SERIAL_PORT=/dev/ttyACM0
SERIAL_BAUD_RATE=115200
PRIMARY_SOURCE=serial
WATCH_MIN_INTERVAL_MS=3000
WATCH_MIN_DISTANCE_M=25.5
DEFAULT_LAT=48.1173
DEFAULT_LON=11.5167
WEB_SERVER_PORT=9090
LOG_LEVEL=debug
`))
		require.NoError(t, err)
		assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
		assert.Equal(t, "/dev/ttyACM0", cfg.SerialPort)
		assert.Equal(t, uint(115200), cfg.SerialBaudRate)
		assert.Equal(t, 3000, cfg.WatchMinIntervalMS)
		assert.Equal(t, 25.5, cfg.WatchMinDistanceM)
		assert.Equal(t, 48.1173, cfg.DefaultLat)
		assert.Equal(t, 9090, cfg.WebServerPort)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("defaults fill the gaps", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
MQTT_BROKER=tcp://localhost:1883
PRIMARY_SOURCE=mock
`))
		require.NoError(t, err)
		assert.Equal(t, "location/fix", cfg.TopicLocation)
		assert.Equal(t, 5000, cfg.WatchMinIntervalMS)
		assert.Equal(t, 10.0, cfg.WatchMinDistanceM)
		assert.Equal(t, 15000, cfg.OneshotTimeoutMS)
		assert.Equal(t, 8080, cfg.WebServerPort)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, "MQTT_BROKER=tcp://x:1883\nBOGUS_KEY=1\n"))
		assert.Error(t, err)
	})

	t.Run("malformed line is rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, "MQTT_BROKER tcp://x:1883\n"))
		assert.Error(t, err)
	})

	t.Run("bad primary source is rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, "MQTT_BROKER=tcp://x:1883\nPRIMARY_SOURCE=carrier-pigeon\n"))
		assert.Error(t, err)
	})

	t.Run("serial source requires a port", func(t *testing.T) {
		_, err := Load(writeConfig(t, "MQTT_BROKER=tcp://x:1883\nPRIMARY_SOURCE=serial\n"))
		assert.Error(t, err)
	})

	t.Run("broker is required", func(t *testing.T) {
		_, err := Load(writeConfig(t, "PRIMARY_SOURCE=mock\n"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
		assert.Error(t, err)
	})
}

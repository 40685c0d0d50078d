package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/benmeehan/iot-dashboard/internal/utils"
	"github.com/benmeehan/iot-dashboard/pkg/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
mqtt:
  broker: "ssl://broker.example.com:8883"
  client_id: "fleet-dashboard"
  ca_certificate: "/etc/iot-dashboard/ca.crt"
  keepalive: 30
  connect_timeout: 10

identity:
  viewer_file: "/var/lib/iot-dashboard/viewer.json"

logging:
  level: "debug"

history:
  capacity: 1000

charts:
  samples: 100
  smoothing_window: 5

export:
  directory: "/var/lib/iot-dashboard/exports"

services:
  link:
    topic_prefix: "fleet/devices"
    qos: 1
    scan_timeout: 5
    connect_timeout: 10
    min_firmware: "1.4.0"
    auto_connect_device: "helmet-01"
    stale_window: 90
  location:
    enabled: true
    interval: 30
    sensor_based: false
    maps_api_key: "test-key"
    gps_device_port: "/dev/ttyUSB0"
    gps_baud_rate: 9600
    modem_index: 0
  dashboard:
    listen_addr: ":8080"
    status_timeout: 5
`

// TestLoadConfig_ParsesAllSections tests that every section of the YAML
// file lands in the right struct field.
func TestLoadConfig_ParsesAllSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := utils.LoadConfig(path, file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, "ssl://broker.example.com:8883", cfg.MQTT.Broker)
	assert.Equal(t, "fleet-dashboard", cfg.MQTT.ClientID)
	assert.Equal(t, "/etc/iot-dashboard/ca.crt", cfg.MQTT.CACertificate)
	assert.EqualValues(t, 30, cfg.MQTT.KeepAlive)
	assert.EqualValues(t, 10, cfg.MQTT.ConnectTimeout)

	assert.Equal(t, "/var/lib/iot-dashboard/viewer.json", cfg.Identity.ViewerFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 1000, cfg.History.Capacity)
	assert.Equal(t, 100, cfg.Charts.Samples)
	assert.Equal(t, 5, cfg.Charts.SmoothingWindow)
	assert.Equal(t, "/var/lib/iot-dashboard/exports", cfg.Export.Directory)

	assert.Equal(t, "fleet/devices", cfg.Services.Link.TopicPrefix)
	assert.Equal(t, 1, cfg.Services.Link.QOS)
	assert.EqualValues(t, 5, cfg.Services.Link.ScanTimeout)
	assert.EqualValues(t, 10, cfg.Services.Link.ConnectTimeout)
	assert.Equal(t, "1.4.0", cfg.Services.Link.MinFirmware)
	assert.Equal(t, "helmet-01", cfg.Services.Link.AutoConnectDevice)
	assert.EqualValues(t, 90, cfg.Services.Link.StaleWindow)

	assert.True(t, cfg.Services.Location.Enabled)
	assert.EqualValues(t, 30, cfg.Services.Location.Interval)
	assert.False(t, cfg.Services.Location.SensorBased)
	assert.Equal(t, "test-key", cfg.Services.Location.MapsAPIKey)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Services.Location.GPSDevicePort)
	assert.Equal(t, 9600, cfg.Services.Location.GPSDeviceBaudRate)
	assert.Equal(t, 0, cfg.Services.Location.ModemIndex)

	assert.Equal(t, ":8080", cfg.Services.Dashboard.ListenAddr)
	assert.EqualValues(t, 5, cfg.Services.Dashboard.StatusTimeout)
}

// TestLoadConfig_MissingFile tests that a nonexistent path surfaces an error.
func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := utils.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), file.NewFileService())

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

// TestLoadConfig_MalformedYAML tests that invalid YAML surfaces an error.
func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mqtt: [broker"), 0o644))

	cfg, err := utils.LoadConfig(path, file.NewFileService())

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

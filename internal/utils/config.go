package utils

import (
	"time"

	"github.com/benmeehan/iot-dashboard/pkg/file"
)

// Config represents the structure of the configuration file.
//
// Duration fields are plain numbers in the YAML and are interpreted in
// seconds where a field is constructed.
type Config struct {
	MQTT struct {
		Broker         string        `yaml:"broker"`          // MQTT broker address
		ClientID       string        `yaml:"client_id"`       // MQTT client ID prefix, the viewer ID is appended at startup
		CACertificate  string        `yaml:"ca_certificate"`  // Path to the CA certificate, empty for plain TCP
		KeepAlive      time.Duration `yaml:"keepalive"`       // MQTT keepalive interval (in seconds)
		ConnectTimeout time.Duration `yaml:"connect_timeout"` // Timeout per broker connection attempt (in seconds)
	} `yaml:"mqtt"`

	Identity struct {
		ViewerFile string `yaml:"viewer_file"` // Path to the viewer identity file
	} `yaml:"identity"`

	Logging struct {
		Level string `yaml:"level"` // zerolog level name, defaults to info when unset or unknown
	} `yaml:"logging"`

	History struct {
		Capacity int `yaml:"capacity"` // Number of telemetry samples kept in memory
	} `yaml:"history"`

	Charts struct {
		Samples         int `yaml:"samples"`          // Number of recent samples rendered per chart
		SmoothingWindow int `yaml:"smoothing_window"` // Moving average window for chart series
	} `yaml:"charts"`

	Export struct {
		Directory string `yaml:"directory"` // Directory where telemetry exports are written
	} `yaml:"export"`

	Services struct {
		Link struct {
			TopicPrefix       string        `yaml:"topic_prefix"`        // MQTT topic prefix shared with the device fleet
			QOS               int           `yaml:"qos"`                 // MQTT QoS level for link subscriptions
			ScanTimeout       time.Duration `yaml:"scan_timeout"`        // How long a discovery scan collects announcements (in seconds)
			ConnectTimeout    time.Duration `yaml:"connect_timeout"`     // Timeout for connecting the broker session (in seconds)
			MinFirmware       string        `yaml:"min_firmware"`        // Minimum device firmware version, empty disables the gate
			AutoConnectDevice string        `yaml:"auto_connect_device"` // Device ID to link on startup, empty to skip
			StaleWindow       time.Duration `yaml:"stale_window"`        // Silence after which a linked device counts as quiet (in seconds)
		} `yaml:"link"`

		Location struct {
			Enabled           bool          `yaml:"enabled"`         // Enable/disable host location sampling
			Interval          time.Duration `yaml:"interval"`        // Interval between host location samples (in seconds)
			SensorBased       bool          `yaml:"sensor_based"`    // Use the GPS sensor instead of the geolocation API
			MapsAPIKey        string        `yaml:"maps_api_key"`    // Google Maps API key for the geolocation API
			GPSDevicePort     string        `yaml:"gps_device_port"` // Serial port where the GPS sensor is mounted
			GPSDeviceBaudRate int           `yaml:"gps_baud_rate"`   // Baud rate for the GPS sensor
			ModemIndex        int           `yaml:"modem_index"`     // ModemManager modem index for cell tower hints
		} `yaml:"location"`

		Dashboard struct {
			ListenAddr    string        `yaml:"listen_addr"`    // HTTP listen address for the dashboard
			StatusTimeout time.Duration `yaml:"status_timeout"` // Time allowed for gathering host health metrics (in seconds)
		} `yaml:"dashboard"`
	} `yaml:"services"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

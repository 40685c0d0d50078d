package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/benmeehan/iot-dashboard/internal/constants"
	"github.com/benmeehan/iot-dashboard/internal/models"
	"github.com/benmeehan/iot-dashboard/internal/telemetry"
	"github.com/benmeehan/iot-dashboard/pkg/mqtt"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// DeviceLinkService owns the MQTT link to tracked devices: discovery over
// retained announce topics, the telemetry subscription for the connected
// device, and operator-triggered connect/disconnect. Broker reconnection
// only happens on an operator action, never in a background retry loop.
type DeviceLinkService struct {
	// Configuration fields
	topicPrefix    string
	qos            int
	scanTimeout    time.Duration
	connectTimeout time.Duration
	minFirmware    string
	autoConnectID  string

	// Dependencies
	mqttClient mqtt.MQTTClient
	tracker    *telemetry.Tracker
	logger     zerolog.Logger

	// announcements remembers the last announce payload per device for
	// the firmware gate at connect time.
	announcements cmap.ConcurrentMap[string, models.DeviceAnnouncement]

	// Internal state management
	mu              sync.Mutex
	minVersion      *semver.Version
	connectedDevice string
	running         bool
}

// NewDeviceLinkService creates a new DeviceLinkService instance with the provided configuration.
func NewDeviceLinkService(topicPrefix string, qos int, scanTimeout, connectTimeout time.Duration,
	minFirmware, autoConnectID string, mqttClient mqtt.MQTTClient, tracker *telemetry.Tracker,
	logger zerolog.Logger) *DeviceLinkService {
	return &DeviceLinkService{
		topicPrefix:    topicPrefix,
		qos:            qos,
		scanTimeout:    scanTimeout,
		connectTimeout: connectTimeout,
		minFirmware:    minFirmware,
		autoConnectID:  autoConnectID,
		mqttClient:     mqttClient,
		tracker:        tracker,
		logger:         logger,
		announcements:  cmap.New[models.DeviceAnnouncement](),
		running:        false,
	}
}

// Start connects the broker session and, when configured, links the
// auto-connect device. An unreachable auto-connect device is reported as
// a notice rather than failing startup.
func (d *DeviceLinkService) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		d.logger.Warn().Msg("DeviceLinkService is already running")
		return errors.New("device link service is already running")
	}

	if d.minFirmware != "" {
		version, err := semver.NewVersion(d.minFirmware)
		if err != nil {
			return fmt.Errorf("invalid minimum firmware version %q: %w", d.minFirmware, err)
		}
		d.minVersion = version
	}

	d.mqttClient.OnConnectionLost(d.handleConnectionLost)
	if err := d.mqttClient.Connect(d.connectTimeout); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	d.running = true
	d.logger.Info().Str("topic_prefix", d.topicPrefix).Msg("DeviceLinkService started")

	if d.autoConnectID != "" {
		if err := d.connectLocked(d.autoConnectID); err != nil {
			d.logger.Warn().Err(err).Str("device_id", d.autoConnectID).Msg("Auto-connect failed")
			d.tracker.Notify(models.NoticeWarning, "link", "Auto-connect failed: "+err.Error())
		}
	}

	return nil
}

// Stop closes the device subscription and the broker session.
func (d *DeviceLinkService) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		d.logger.Warn().Msg("DeviceLinkService is not running")
		return errors.New("device link service is not running")
	}

	if d.connectedDevice != "" {
		if err := d.mqttClient.Unsubscribe(d.telemetryTopic(d.connectedDevice)); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to unsubscribe from telemetry topic")
		}
		d.connectedDevice = ""
	}

	d.mqttClient.Disconnect(250)
	d.running = false
	d.tracker.UpdateLink(models.LinkIdle, "", "")
	d.logger.Info().Msg("DeviceLinkService stopped")
	return nil
}

// Scan listens on the wildcard announce topic for one scan window and
// returns the devices heard, newest announcement per device.
func (d *DeviceLinkService) Scan(ctx context.Context) ([]models.DeviceAnnouncement, error) {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil, errors.New("device link service is not running")
	}
	if err := d.ensureConnectedLocked(); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	d.mu.Unlock()

	// Retained announcements re-arrive on every subscribe, so each scan
	// starts from a clean slate and silent devices age out.
	d.announcements.Clear()

	topic := d.announceTopic("+")
	if err := d.mqttClient.Subscribe(topic, byte(d.qos), d.handleAnnouncement); err != nil {
		return nil, fmt.Errorf("failed to subscribe to announce topic: %w", err)
	}
	defer func() {
		if err := d.mqttClient.Unsubscribe(topic); err != nil {
			d.logger.Warn().Err(err).Str("topic", topic).Msg("Failed to unsubscribe from announce topic")
		}
	}()

	d.logger.Info().Str("topic", topic).Dur("window_ms", d.scanTimeout).Msg("Scanning for device announcements")

	select {
	case <-ctx.Done():
	case <-time.After(d.scanTimeout):
	}

	devices := make([]models.DeviceAnnouncement, 0, d.announcements.Count())
	for item := range d.announcements.IterBuffered() {
		devices = append(devices, item.Val)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].DeviceID < devices[j].DeviceID })

	d.logger.Info().Int("devices", len(devices)).Msg("Device scan finished")
	return devices, nil
}

// Connect subscribes to the device's telemetry topic after the firmware
// gate passes. Connecting to a new device drops the previous subscription.
func (d *DeviceLinkService) Connect(deviceID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connectLocked(deviceID)
}

func (d *DeviceLinkService) connectLocked(deviceID string) error {
	if deviceID == "" {
		return errors.New("device id is required")
	}
	if !d.running {
		return errors.New("device link service is not running")
	}
	if d.connectedDevice == deviceID {
		return nil
	}

	if err := d.checkFirmware(deviceID); err != nil {
		d.tracker.Notify(models.NoticeWarning, "link", err.Error())
		return err
	}

	if err := d.ensureConnectedLocked(); err != nil {
		return err
	}

	d.tracker.UpdateLink(models.LinkConnecting, deviceID, "")

	if d.connectedDevice != "" {
		if err := d.mqttClient.Unsubscribe(d.telemetryTopic(d.connectedDevice)); err != nil {
			d.logger.Warn().Err(err).Str("device_id", d.connectedDevice).Msg("Failed to unsubscribe previous device")
		}
		d.connectedDevice = ""
	}

	topic := d.telemetryTopic(deviceID)
	if err := d.mqttClient.Subscribe(topic, byte(d.qos), d.handleTelemetry); err != nil {
		d.tracker.UpdateLink(models.LinkIdle, "", "telemetry subscribe failed: "+err.Error())
		return fmt.Errorf("failed to subscribe to telemetry topic: %w", err)
	}

	d.connectedDevice = deviceID
	d.tracker.UpdateLink(models.LinkConnected, deviceID, "")
	d.logger.Info().Str("device_id", deviceID).Str("topic", topic).Msg("Device link established")
	return nil
}

// Disconnect drops the telemetry subscription on operator request. The
// broker session stays up for later scans.
func (d *DeviceLinkService) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return errors.New("device link service is not running")
	}
	if d.connectedDevice == "" {
		return errors.New("no device is connected")
	}

	topic := d.telemetryTopic(d.connectedDevice)
	if err := d.mqttClient.Unsubscribe(topic); err != nil {
		d.logger.Warn().Err(err).Str("topic", topic).Msg("Failed to unsubscribe from telemetry topic")
	}

	device := d.connectedDevice
	d.connectedDevice = ""
	d.tracker.UpdateLink(models.LinkDisconnected, "", "")
	d.logger.Info().Str("device_id", device).Msg("Device link closed by operator")
	return nil
}

// checkFirmware enforces the configured minimum firmware against the
// device's last announcement. Devices that never announced, or announced
// an unparseable version, pass the gate with a log line.
func (d *DeviceLinkService) checkFirmware(deviceID string) error {
	if d.minVersion == nil {
		return nil
	}

	announcement, ok := d.announcements.Get(deviceID)
	if !ok || announcement.Firmware == "" {
		d.logger.Debug().Str("device_id", deviceID).Msg("No firmware announcement, skipping version gate")
		return nil
	}

	version, err := semver.NewVersion(announcement.Firmware)
	if err != nil {
		d.logger.Warn().
			Str("device_id", deviceID).
			Str("firmware", announcement.Firmware).
			Msg("Unparseable firmware version, skipping version gate")
		return nil
	}

	if version.LessThan(d.minVersion) {
		return fmt.Errorf("device %s firmware %s is below the required minimum %s",
			deviceID, announcement.Firmware, d.minVersion)
	}
	return nil
}

// ensureConnectedLocked re-establishes the broker session if it was lost.
func (d *DeviceLinkService) ensureConnectedLocked() error {
	if d.mqttClient.IsConnected() {
		return nil
	}

	d.logger.Info().Msg("Reconnecting to MQTT broker")
	if err := d.mqttClient.Connect(d.connectTimeout); err != nil {
		return fmt.Errorf("failed to reconnect to MQTT broker: %w", err)
	}
	return nil
}

// handleAnnouncement records a device announcement heard during a scan.
func (d *DeviceLinkService) handleAnnouncement(_ pahomqtt.Client, msg pahomqtt.Message) {
	var announcement models.DeviceAnnouncement
	if err := json.Unmarshal(msg.Payload(), &announcement); err != nil {
		d.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("Discarding malformed announcement")
		return
	}

	if announcement.DeviceID == "" {
		announcement.DeviceID = deviceIDFromTopic(msg.Topic())
	}
	if announcement.DeviceID == "" {
		return
	}

	announcement.SeenAt = time.Now()
	d.announcements.Set(announcement.DeviceID, announcement)
}

// handleTelemetry forwards device payloads to the tracker untouched. The
// tracker's decoder owns validation.
func (d *DeviceLinkService) handleTelemetry(_ pahomqtt.Client, msg pahomqtt.Message) {
	d.tracker.IngestRaw(msg.Payload())
}

// handleConnectionLost reports a dropped broker session. No reconnect is
// attempted here; the operator triggers one through scan or connect.
func (d *DeviceLinkService) handleConnectionLost(err error) {
	d.mu.Lock()
	d.connectedDevice = ""
	d.mu.Unlock()

	detail := "broker connection lost"
	if err != nil {
		detail = "broker connection lost: " + err.Error()
	}
	d.tracker.UpdateLink(models.LinkDisconnected, "", detail)
}

func (d *DeviceLinkService) announceTopic(deviceID string) string {
	return d.topicPrefix + "/" + deviceID + "/" + constants.TopicAnnounceSuffix
}

func (d *DeviceLinkService) telemetryTopic(deviceID string) string {
	return d.topicPrefix + "/" + deviceID + "/" + constants.TopicTelemetrySuffix
}

// deviceIDFromTopic extracts the device segment of <prefix>/<id>/<suffix>.
func deviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benmeehan/iot-dashboard/internal/models"
	"github.com/benmeehan/iot-dashboard/internal/services"
	"github.com/benmeehan/iot-dashboard/internal/telemetry"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockMQTTClient is a mock implementation of the mqtt.MQTTClient interface.
// Subscribe handlers are captured so tests can inject broker messages.
type mockMQTTClient struct {
	mock.Mock

	mu       sync.Mutex
	handlers map[string]pahomqtt.MessageHandler
	onLost   func(error)
}

func (m *mockMQTTClient) Connect(timeout time.Duration) error {
	args := m.Called(timeout)
	return args.Error(0)
}

func (m *mockMQTTClient) Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) error {
	m.mu.Lock()
	if m.handlers == nil {
		m.handlers = make(map[string]pahomqtt.MessageHandler)
	}
	m.handlers[topic] = callback
	m.mu.Unlock()

	args := m.Called(topic, qos, callback)
	return args.Error(0)
}

func (m *mockMQTTClient) Unsubscribe(topics ...string) error {
	callArgs := make([]interface{}, len(topics))
	for i, topic := range topics {
		callArgs[i] = topic
	}
	args := m.Called(callArgs...)
	return args.Error(0)
}

func (m *mockMQTTClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

func (m *mockMQTTClient) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockMQTTClient) OnConnectionLost(handler func(error)) {
	m.mu.Lock()
	m.onLost = handler
	m.mu.Unlock()
}

// handler returns the captured subscription callback for a topic.
func (m *mockMQTTClient) handler(topic string) pahomqtt.MessageHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handlers[topic]
}

// lostHandler returns the captured connection-lost callback.
func (m *mockMQTTClient) lostHandler() func(error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.onLost
}

// fakeMessage implements pahomqtt.Message for handler injection.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (f *fakeMessage) Duplicate() bool { return false }

func (f *fakeMessage) Qos() byte { return 0 }

func (f *fakeMessage) Retained() bool { return true }

func (f *fakeMessage) Topic() string { return f.topic }

func (f *fakeMessage) MessageID() uint16 { return 0 }

func (f *fakeMessage) Payload() []byte { return f.payload }

func (f *fakeMessage) Ack() {}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast([]byte) {}

// newTestTracker returns a started tracker that is stopped with the test.
func newTestTracker(t *testing.T) *telemetry.Tracker {
	t.Helper()

	tracker := telemetry.NewTracker(100, time.Minute, noopBroadcaster{}, zerolog.Nop())
	require.NoError(t, tracker.Start())
	t.Cleanup(func() { _ = tracker.Stop() })

	return tracker
}

func waitForLinkState(t *testing.T, tracker *telemetry.Tracker, state models.LinkState) {
	t.Helper()

	require.Eventually(t, func() bool {
		return tracker.Status().LinkState == state
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDeviceLinkService_StartAndStop(t *testing.T) {
	// Setup
	mockMQTT := new(mockMQTTClient)
	mockMQTT.On("Connect", mock.Anything).Return(nil)
	mockMQTT.On("Disconnect", uint(250)).Return()

	tracker := newTestTracker(t)
	svc := services.NewDeviceLinkService("fleet", 1, 30*time.Millisecond, time.Second,
		"", "", mockMQTT, tracker, zerolog.Nop())

	// Execute and assert
	assert.NoError(t, svc.Start())

	err := svc.Start()
	assert.Error(t, err)
	assert.Equal(t, "device link service is already running", err.Error())

	assert.NoError(t, svc.Stop())

	err = svc.Stop()
	assert.Error(t, err)
	assert.Equal(t, "device link service is not running", err.Error())

	mockMQTT.AssertExpectations(t)
}

func TestDeviceLinkService_StartRejectsBadMinimumFirmware(t *testing.T) {
	mockMQTT := new(mockMQTTClient)
	tracker := newTestTracker(t)

	svc := services.NewDeviceLinkService("fleet", 1, 30*time.Millisecond, time.Second,
		"not-a-version", "", mockMQTT, tracker, zerolog.Nop())

	err := svc.Start()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid minimum firmware version")
	mockMQTT.AssertNotCalled(t, "Connect", mock.Anything)
}

func TestDeviceLinkService_ScanCollectsAnnouncements(t *testing.T) {
	// Setup
	mockMQTT := new(mockMQTTClient)
	mockMQTT.On("Connect", mock.Anything).Return(nil)
	mockMQTT.On("IsConnected").Return(true)
	mockMQTT.On("Unsubscribe", "fleet/+/announce").Return(nil)

	// Retained announcements arrive as soon as the subscription is made.
	mockMQTT.On("Subscribe", "fleet/+/announce", byte(1), mock.Anything).
		Run(func(args mock.Arguments) {
			handler := args.Get(2).(pahomqtt.MessageHandler)
			handler(nil, &fakeMessage{
				topic:   "fleet/dev-2/announce",
				payload: []byte(`{"device_id":"dev-2","device_name":"Beta","firmware":"2.0.0"}`),
			})
			handler(nil, &fakeMessage{
				topic:   "fleet/dev-1/announce",
				payload: []byte(`{"device_name":"Alpha","firmware":"1.0.0"}`),
			})
			handler(nil, &fakeMessage{
				topic:   "fleet/dev-x/announce",
				payload: []byte(`not json`),
			})
		}).Return(nil)

	tracker := newTestTracker(t)
	svc := services.NewDeviceLinkService("fleet", 1, 30*time.Millisecond, time.Second,
		"", "", mockMQTT, tracker, zerolog.Nop())
	require.NoError(t, svc.Start())

	// Execute
	devices, err := svc.Scan(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "dev-1", devices[0].DeviceID)
	assert.Equal(t, "Alpha", devices[0].Name)
	assert.Equal(t, "dev-2", devices[1].DeviceID)
	assert.False(t, devices[0].SeenAt.IsZero())
	mockMQTT.AssertExpectations(t)
}

func TestDeviceLinkService_ConnectFeedsTelemetryToTracker(t *testing.T) {
	// Setup
	mockMQTT := new(mockMQTTClient)
	mockMQTT.On("Connect", mock.Anything).Return(nil)
	mockMQTT.On("IsConnected").Return(true)
	mockMQTT.On("Subscribe", "fleet/dev-1/telemetry", byte(1), mock.Anything).Return(nil).Once()

	tracker := newTestTracker(t)
	svc := services.NewDeviceLinkService("fleet", 1, 30*time.Millisecond, time.Second,
		"", "", mockMQTT, tracker, zerolog.Nop())
	require.NoError(t, svc.Start())

	// Execute
	require.NoError(t, svc.Connect("dev-1"))
	// Connecting twice to the same device is a no-op.
	require.NoError(t, svc.Connect("dev-1"))

	waitForLinkState(t, tracker, models.LinkConnected)
	assert.Equal(t, "dev-1", tracker.Status().ConnectedDevice)

	handler := mockMQTT.handler("fleet/dev-1/telemetry")
	require.NotNil(t, handler)
	handler(nil, &fakeMessage{
		topic:   "fleet/dev-1/telemetry",
		payload: []byte(`{"lat":48.1,"lon":11.5,"speed":"3.5"}`),
	})

	// Assert
	require.Eventually(t, func() bool {
		return tracker.Status().SamplesAccepted == 1
	}, 2*time.Second, 5*time.Millisecond)

	sample, live := tracker.Latest()
	require.True(t, live)
	assert.Equal(t, models.SourceDevice, sample.Source)
	assert.Equal(t, 3.5, sample.Speed)
	mockMQTT.AssertExpectations(t)
}

func TestDeviceLinkService_ConnectEnforcesFirmwareGate(t *testing.T) {
	// Setup: a scan that hears an outdated and an up-to-date device.
	mockMQTT := new(mockMQTTClient)
	mockMQTT.On("Connect", mock.Anything).Return(nil)
	mockMQTT.On("IsConnected").Return(true)
	mockMQTT.On("Unsubscribe", "fleet/+/announce").Return(nil)
	mockMQTT.On("Subscribe", "fleet/+/announce", byte(1), mock.Anything).
		Run(func(args mock.Arguments) {
			handler := args.Get(2).(pahomqtt.MessageHandler)
			handler(nil, &fakeMessage{
				topic:   "fleet/dev-old/announce",
				payload: []byte(`{"device_id":"dev-old","firmware":"0.9.0"}`),
			})
			handler(nil, &fakeMessage{
				topic:   "fleet/dev-new/announce",
				payload: []byte(`{"device_id":"dev-new","firmware":"1.2.0"}`),
			})
		}).Return(nil)
	mockMQTT.On("Subscribe", "fleet/dev-new/telemetry", byte(1), mock.Anything).Return(nil)

	tracker := newTestTracker(t)
	svc := services.NewDeviceLinkService("fleet", 1, 30*time.Millisecond, time.Second,
		"1.0.0", "", mockMQTT, tracker, zerolog.Nop())
	require.NoError(t, svc.Start())

	_, err := svc.Scan(context.Background())
	require.NoError(t, err)

	// Execute and assert: the outdated device is refused with a notice.
	err = svc.Connect("dev-old")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below the required minimum")
	mockMQTT.AssertNotCalled(t, "Subscribe", "fleet/dev-old/telemetry", byte(1), mock.Anything)

	require.Eventually(t, func() bool {
		for _, notice := range tracker.Notices() {
			if notice.Level == models.NoticeWarning && notice.Origin == "link" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	// The up-to-date device connects fine.
	require.NoError(t, svc.Connect("dev-new"))
	waitForLinkState(t, tracker, models.LinkConnected)
	mockMQTT.AssertExpectations(t)
}

func TestDeviceLinkService_DisconnectDropsSubscription(t *testing.T) {
	// Setup
	mockMQTT := new(mockMQTTClient)
	mockMQTT.On("Connect", mock.Anything).Return(nil)
	mockMQTT.On("IsConnected").Return(true)
	mockMQTT.On("Subscribe", "fleet/dev-1/telemetry", byte(1), mock.Anything).Return(nil)
	mockMQTT.On("Unsubscribe", "fleet/dev-1/telemetry").Return(nil)

	tracker := newTestTracker(t)
	svc := services.NewDeviceLinkService("fleet", 1, 30*time.Millisecond, time.Second,
		"", "", mockMQTT, tracker, zerolog.Nop())
	require.NoError(t, svc.Start())
	require.NoError(t, svc.Connect("dev-1"))
	waitForLinkState(t, tracker, models.LinkConnected)

	// Execute
	require.NoError(t, svc.Disconnect())

	// Assert
	waitForLinkState(t, tracker, models.LinkDisconnected)
	assert.Empty(t, tracker.Status().ConnectedDevice)

	err := svc.Disconnect()
	assert.Error(t, err)
	assert.Equal(t, "no device is connected", err.Error())
	mockMQTT.AssertExpectations(t)
}

func TestDeviceLinkService_BrokerLossSurfacesAsDisconnect(t *testing.T) {
	// Setup
	mockMQTT := new(mockMQTTClient)
	mockMQTT.On("Connect", mock.Anything).Return(nil)
	mockMQTT.On("IsConnected").Return(true)
	mockMQTT.On("Subscribe", "fleet/dev-1/telemetry", byte(1), mock.Anything).Return(nil)

	tracker := newTestTracker(t)
	svc := services.NewDeviceLinkService("fleet", 1, 30*time.Millisecond, time.Second,
		"", "", mockMQTT, tracker, zerolog.Nop())
	require.NoError(t, svc.Start())
	require.NoError(t, svc.Connect("dev-1"))
	waitForLinkState(t, tracker, models.LinkConnected)

	// Execute: the paho connection-lost callback fires.
	lost := mockMQTT.lostHandler()
	require.NotNil(t, lost)
	lost(errors.New("broken pipe"))

	// Assert
	waitForLinkState(t, tracker, models.LinkDisconnected)
	require.Eventually(t, func() bool {
		for _, notice := range tracker.Notices() {
			if notice.Level == models.NoticeWarning && notice.Origin == "link" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDeviceLinkService_AutoConnect(t *testing.T) {
	// Setup
	mockMQTT := new(mockMQTTClient)
	mockMQTT.On("Connect", mock.Anything).Return(nil)
	mockMQTT.On("IsConnected").Return(true)
	mockMQTT.On("Subscribe", "fleet/dev-7/telemetry", byte(1), mock.Anything).Return(nil)

	tracker := newTestTracker(t)
	svc := services.NewDeviceLinkService("fleet", 1, 30*time.Millisecond, time.Second,
		"", "dev-7", mockMQTT, tracker, zerolog.Nop())

	// Execute
	require.NoError(t, svc.Start())

	// Assert
	waitForLinkState(t, tracker, models.LinkConnected)
	assert.Equal(t, "dev-7", tracker.Status().ConnectedDevice)
	mockMQTT.AssertExpectations(t)
}

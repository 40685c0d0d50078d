package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/iot-dashboard/pkg/file"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// MQTTClient defines the broker operations the dashboard uses. The
// dashboard only consumes topics; it never publishes.
type MQTTClient interface {
	Connect(timeout time.Duration) error
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
	Disconnect(quiesce uint)
	IsConnected() bool
	OnConnectionLost(handler func(error))
}

// MqttService provides methods for MQTT operations.
//
// Auto-reconnect is off. A lost broker connection surfaces to the
// operator and waits for an explicit reconnect.
type MqttService struct {
	client     mqtt.Client
	fileClient file.FileOperations
	logger     zerolog.Logger
	onLost     func(error)
}

// NewMqttService creates a new MqttService instance.
func NewMqttService(fileClient file.FileOperations, logger zerolog.Logger) *MqttService {
	return &MqttService{
		fileClient: fileClient,
		logger:     logger,
	}
}

// Initialize sets up the MQTT client. caCertPath is optional; when set the
// connection uses TLS with that CA. The client is not connected yet.
func (s *MqttService) Initialize(broker, clientID, caCertPath string, keepAlive, connectTimeout time.Duration) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetKeepAlive(keepAlive)
	opts.SetPingTimeout(keepAlive / 2)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warn().Err(err).Msg("MQTT connection lost")
		if s.onLost != nil {
			s.onLost(err)
		}
	})

	if caCertPath != "" {
		caCert, err := s.fileClient.ReadFileRaw(caCertPath)
		if err != nil {
			return fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return errors.New("failed to append CA certificate")
		}
		opts.SetTLSConfig(&tls.Config{RootCAs: caCertPool})
	}

	s.client = mqtt.NewClient(opts)
	return nil
}

// OnConnectionLost registers the handler invoked when the broker drops
// the connection. Must be set before Connect.
func (s *MqttService) OnConnectionLost(handler func(error)) {
	s.onLost = handler
}

// Connect dials the broker, bounded by timeout.
func (s *MqttService) Connect(timeout time.Duration) error {
	token := s.client.Connect()
	if !token.WaitTimeout(timeout) {
		return errors.New("mqtt connect timed out")
	}
	return token.Error()
}

// Subscribe subscribes to the specified topic with a message handler.
func (s *MqttService) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) error {
	token := s.client.Subscribe(topic, qos, callback)
	token.Wait()
	return token.Error()
}

// Unsubscribe unsubscribes from the specified topics.
func (s *MqttService) Unsubscribe(topics ...string) error {
	token := s.client.Unsubscribe(topics...)
	token.Wait()
	return token.Error()
}

// Disconnect gracefully disconnects the MQTT client.
func (s *MqttService) Disconnect(quiesce uint) {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(quiesce)
	}
}

// IsConnected reports whether the broker connection is up.
func (s *MqttService) IsConnected() bool {
	return s.client != nil && s.client.IsConnected()
}

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benmeehan/iot-dashboard/internal/service_registry"
	"github.com/benmeehan/iot-dashboard/internal/utils"
	"github.com/benmeehan/iot-dashboard/pkg/file"
	"github.com/benmeehan/iot-dashboard/pkg/identity"
	"github.com/benmeehan/iot-dashboard/pkg/mqtt"
	"github.com/rs/zerolog"
)

func main() {
	// Set up structured logging with JSON output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig("configs/config.yaml", fileClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(config.Logging.Level); err == nil && level != zerolog.NoLevel {
		logger = logger.Level(level)
	}

	// Load the viewer identity, generating one on first run
	viewerInfo := identity.NewViewerInfo(config.Identity.ViewerFile, fileClient)
	if err := viewerInfo.EnsureViewerID(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load viewer identity")
	}

	// The viewer ID keeps the broker session stable across restarts
	config.MQTT.ClientID = config.MQTT.ClientID + "-" + viewerInfo.GetViewerID()
	logger.Info().Str("client_id", config.MQTT.ClientID).Msg("Using MQTT client ID")

	// Initialize the shared MQTT session. The link service decides when
	// to connect it.
	mqttClient := mqtt.NewMqttService(fileClient, logger)
	err = mqttClient.Initialize(
		config.MQTT.Broker,
		config.MQTT.ClientID,
		config.MQTT.CACertificate,
		time.Duration(config.MQTT.KeepAlive)*time.Second,
		time.Duration(config.MQTT.ConnectTimeout)*time.Second,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize MQTT client")
	}

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(mqttClient, fileClient, logger)

	// Register all services based on the configuration
	if err := serviceRegistry.RegisterServices(config); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register services")
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Service shutdown reported errors")
	}
	if mqttClient.IsConnected() {
		mqttClient.Disconnect(250)
	}
}

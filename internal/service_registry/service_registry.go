package service_registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/iot-dashboard/internal/dashboard"
	"github.com/benmeehan/iot-dashboard/internal/export"
	"github.com/benmeehan/iot-dashboard/internal/registry"
	"github.com/benmeehan/iot-dashboard/internal/services"
	"github.com/benmeehan/iot-dashboard/internal/status"
	"github.com/benmeehan/iot-dashboard/internal/telemetry"
	"github.com/benmeehan/iot-dashboard/internal/utils"
	"github.com/benmeehan/iot-dashboard/pkg/file"
	"github.com/benmeehan/iot-dashboard/pkg/location"
	"github.com/benmeehan/iot-dashboard/pkg/mqtt"
	"github.com/rs/zerolog"
)

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	mqttClient  mqtt.MQTTClient
	fileClient  file.FileOperations
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(mqttClient mqtt.MQTTClient, fileClient file.FileOperations,
	logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]registry.Service),
		mqttClient: mqttClient,
		fileClient: fileClient,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return err
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// monitorService adapts the health monitor to the service interface.
// The monitor has no loop to start; Stop releases its worker pool.
type monitorService struct {
	monitor *status.HealthMonitor
}

func (m *monitorService) Start() error {
	return nil
}

func (m *monitorService) Stop() error {
	m.monitor.Shutdown()
	return nil
}

// RegisterServices initializes and registers enabled services based on
// configuration. Shared components (hub, tracker, exporter, health
// monitor) are built here and threaded through the services that use
// them. Stop runs in reverse registration order, so the HTTP surface
// goes down before the stores it reads.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config) error {
	hub := dashboard.NewHub(sr.Logger)

	tracker := telemetry.NewTracker(
		config.History.Capacity,
		time.Duration(config.Services.Link.StaleWindow)*time.Second,
		hub,
		sr.Logger,
	)

	linkService := services.NewDeviceLinkService(
		config.Services.Link.TopicPrefix,
		config.Services.Link.QOS,
		time.Duration(config.Services.Link.ScanTimeout)*time.Second,
		time.Duration(config.Services.Link.ConnectTimeout)*time.Second,
		config.Services.Link.MinFirmware,
		config.Services.Link.AutoConnectDevice,
		sr.mqttClient,
		tracker,
		sr.Logger,
	)

	health := status.NewHealthMonitor(
		time.Duration(config.Services.Dashboard.StatusTimeout)*time.Second,
		sr.Logger,
	)
	health.RegisterDefaultCollectors()

	exporter := export.NewExporter(config.Export.Directory, sr.fileClient, sr.Logger)

	server := dashboard.NewServer(
		tracker,
		hub,
		linkService,
		exporter,
		health,
		config.Charts.Samples,
		config.Charts.SmoothingWindow,
		sr.Logger,
	)

	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "tracker",
			enabled: true,
			constructor: func() (registry.Service, error) {
				return tracker, nil
			},
		},
		{
			name:    "health",
			enabled: true,
			constructor: func() (registry.Service, error) {
				return &monitorService{monitor: health}, nil
			},
		},
		{
			name:    "link",
			enabled: true,
			constructor: func() (registry.Service, error) {
				return linkService, nil
			},
		},
		{
			name:    "location",
			enabled: config.Services.Location.Enabled,
			constructor: func() (registry.Service, error) {
				var provider location.Provider
				if config.Services.Location.SensorBased {
					provider = location.NewDeviceSensorProvider(
						config.Services.Location.GPSDevicePort,
						config.Services.Location.GPSDeviceBaudRate,
					)
				} else {
					googleProvider, err := location.NewGoogleGeolocationProvider(
						config.Services.Location.MapsAPIKey,
						config.Services.Location.ModemIndex,
					)
					if err != nil {
						sr.Logger.Error().Err(err).Msg("Failed to create Google geolocation provider")
						return nil, err
					}
					provider = googleProvider
				}
				return services.NewLocationService(
					time.Duration(config.Services.Location.Interval)*time.Second,
					tracker,
					provider,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "dashboard",
			enabled: true,
			constructor: func() (registry.Service, error) {
				return services.NewDashboardService(
					config.Services.Dashboard.ListenAddr,
					server.Router(),
					hub,
					sr.Logger,
				), nil
			},
		},
	}

	// Register services in the predefined order
	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}

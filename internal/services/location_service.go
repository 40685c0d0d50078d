package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/iot-dashboard/internal/models"
	"github.com/benmeehan/iot-dashboard/internal/telemetry"
	"github.com/benmeehan/iot-dashboard/pkg/location"
	"github.com/rs/zerolog"
)

// LocationService periodically samples the host's own position and feeds
// it to the telemetry tracker as the phone-grade fallback source. The
// tracker decides whether each sample is kept or discarded.
type LocationService struct {
	// Configuration fields
	interval time.Duration

	// Dependencies
	tracker          *telemetry.Tracker
	locationProvider location.Provider
	logger           zerolog.Logger

	// Internal state management
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool

	// failureNoticed keeps provider failures from flooding the notice
	// feed; one notice per outage, cleared on the next good reading.
	failureNoticed bool
}

// NewLocationService creates a new LocationService instance with the provided configuration.
func NewLocationService(interval time.Duration, tracker *telemetry.Tracker,
	locationProvider location.Provider, logger zerolog.Logger) *LocationService {
	return &LocationService{
		interval:         interval,
		tracker:          tracker,
		locationProvider: locationProvider,
		logger:           logger,
		running:          false,
	}
}

// Start initiates the LocationService, periodically feeding host location
// samples to the tracker.
func (l *LocationService) Start() error {
	if l.running {
		l.logger.Warn().Msg("LocationService is already running")
		return errors.New("location service is already running")
	}

	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.running = true

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := l.sampleLocation(); err != nil {
					l.logger.Warn().
						Err(err).
						Msg("Failed to sample host location")
				}
			case <-l.ctx.Done():
				l.logger.Info().Msg("LocationService is stopping")
				return
			}
		}
	}()

	l.logger.Info().
		Dur("interval_ms", l.interval).
		Msg("LocationService started")
	return nil
}

// Stop gracefully stops the LocationService, ensuring all goroutines are terminated.
func (l *LocationService) Stop() error {
	if !l.running {
		l.logger.Warn().Msg("LocationService is not running")
		return errors.New("location service is not running")
	}

	l.cancel()
	l.wg.Wait()

	if err := l.locationProvider.Close(); err != nil {
		l.logger.Error().Err(err).Msg("Failed to close location provider")
		return err
	}

	l.running = false
	l.logger.Info().Msg("LocationService stopped")
	return nil
}

// sampleLocation fetches the current host location and hands it to the
// tracker as a phone-source sample.
func (l *LocationService) sampleLocation() error {
	ctx, cancel := context.WithTimeout(l.ctx, l.interval)
	defer cancel()

	loc, err := l.locationProvider.GetLocation(ctx)
	if err != nil {
		if !l.failureNoticed {
			l.tracker.Notify(models.NoticeWarning, "location", "Host location unavailable: "+err.Error())
			l.failureNoticed = true
		}
		return err
	}
	l.failureNoticed = false

	l.tracker.IngestPhone(models.TelemetrySample{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Speed:     loc.Speed,
		Alert:     telemetry.PhoneDefaults.Alert,
		Activity:  telemetry.PhoneDefaults.Activity,
	})

	l.logger.Debug().
		Float64("lat", loc.Latitude).
		Float64("lon", loc.Longitude).
		Msg("Host location sampled")
	return nil
}

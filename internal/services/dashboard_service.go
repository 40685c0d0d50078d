package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/benmeehan/iot-dashboard/internal/dashboard"
	"github.com/rs/zerolog"
)

// DashboardService runs the HTTP server carrying the dashboard page, the
// JSON API and the websocket feed.
type DashboardService struct {
	// Configuration fields
	listenAddr string

	// Dependencies
	handler http.Handler
	hub     *dashboard.Hub
	logger  zerolog.Logger

	// Internal state management
	server   *http.Server
	listener net.Listener
	running  bool
}

// NewDashboardService creates a new DashboardService serving the given handler.
func NewDashboardService(listenAddr string, handler http.Handler, hub *dashboard.Hub,
	logger zerolog.Logger) *DashboardService {
	return &DashboardService{
		listenAddr: listenAddr,
		handler:    handler,
		hub:        hub,
		logger:     logger,
		running:    false,
	}
}

// Start binds the listen address and serves requests in the background.
// A bind failure is returned synchronously.
func (d *DashboardService) Start() error {
	if d.running {
		d.logger.Warn().Msg("DashboardService is already running")
		return errors.New("dashboard service is already running")
	}

	listener, err := net.Listen("tcp", d.listenAddr)
	if err != nil {
		return err
	}

	d.listener = listener
	d.server = &http.Server{
		Handler:           d.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := d.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error().Err(err).Msg("Dashboard server terminated unexpectedly")
		}
	}()

	d.running = true
	d.logger.Info().Str("addr", d.Addr()).Msg("DashboardService started")
	return nil
}

// Addr returns the bound listen address. It differs from the configured
// one when the port was 0.
func (d *DashboardService) Addr() string {
	if d.listener == nil {
		return d.listenAddr
	}
	return d.listener.Addr().String()
}

// Stop drains in-flight requests and disconnects websocket pages.
func (d *DashboardService) Stop() error {
	if !d.running {
		d.logger.Warn().Msg("DashboardService is not running")
		return errors.New("dashboard service is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.server.Shutdown(ctx); err != nil {
		d.logger.Error().Err(err).Msg("Failed to shut down dashboard server")
		return err
	}
	d.hub.Shutdown()

	d.running = false
	d.logger.Info().Msg("DashboardService stopped")
	return nil
}

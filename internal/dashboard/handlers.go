package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/benmeehan/iot-dashboard/internal/charting"
	"github.com/benmeehan/iot-dashboard/internal/constants"
	"github.com/benmeehan/iot-dashboard/internal/export"
	"github.com/benmeehan/iot-dashboard/internal/models"
	"github.com/benmeehan/iot-dashboard/internal/status"
	"github.com/benmeehan/iot-dashboard/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
)

// defaultHistoryLimit bounds /api/history responses when the page does not
// ask for a specific window.
const defaultHistoryLimit = 100

// LinkController exposes the manual device link operations the page can
// trigger.
type LinkController interface {
	Scan(ctx context.Context) ([]models.DeviceAnnouncement, error)
	Connect(deviceID string) error
	Disconnect() error
}

// Server wires the telemetry tracker, the websocket hub and the link
// controls into the dashboard's HTTP surface.
type Server struct {
	tracker  *telemetry.Tracker
	hub      *Hub
	link     LinkController
	exporter *export.Exporter
	health   *status.HealthMonitor
	logger   zerolog.Logger

	chartSamples    int
	smoothingWindow int
}

// NewServer creates a dashboard Server. Non-positive chart settings fall
// back to the package defaults.
func NewServer(
	tracker *telemetry.Tracker,
	hub *Hub,
	link LinkController,
	exporter *export.Exporter,
	health *status.HealthMonitor,
	chartSamples, smoothingWindow int,
	logger zerolog.Logger,
) *Server {
	if chartSamples <= 0 {
		chartSamples = constants.DefaultChartSamples
	}
	if smoothingWindow <= 0 {
		smoothingWindow = constants.DefaultSmoothingWindow
	}
	return &Server{
		tracker:         tracker,
		hub:             hub,
		link:            link,
		exporter:        exporter,
		health:          health,
		chartSamples:    chartSamples,
		smoothingWindow: smoothingWindow,
		logger:          logger,
	}
}

// Router builds the dashboard route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Use(loggingMiddleware(s.logger))

	router.Path("/").HandlerFunc(s.handleIndex).Methods(http.MethodGet)
	router.Path("/ws").HandlerFunc(s.hub.HandleWS)
	router.Path("/charts/speed").HandlerFunc(s.handleSpeedChart).Methods(http.MethodGet)
	router.Path("/charts/attitude").HandlerFunc(s.handleAttitudeChart).Methods(http.MethodGet)

	apiRoutes := router.PathPrefix("/api").Subrouter()
	apiRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiRoutes.Path("/latest").HandlerFunc(s.handleLatest).Methods(http.MethodGet)
	apiRoutes.Path("/history").HandlerFunc(s.handleHistory).Methods(http.MethodGet)
	apiRoutes.Path("/track").HandlerFunc(s.handleTrack).Methods(http.MethodGet)
	apiRoutes.Path("/series").HandlerFunc(s.handleSeries).Methods(http.MethodGet)
	apiRoutes.Path("/status").HandlerFunc(s.handleStatus).Methods(http.MethodGet)
	apiRoutes.Path("/link/scan").HandlerFunc(s.handleLinkScan).Methods(http.MethodPost)
	apiRoutes.Path("/link/connect").HandlerFunc(s.handleLinkConnect).Methods(http.MethodPost)
	apiRoutes.Path("/link/disconnect").HandlerFunc(s.handleLinkDisconnect).Methods(http.MethodPost)
	apiRoutes.Path("/export").HandlerFunc(s.handleExport).Methods(http.MethodPost)

	return router
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(indexPage)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write dashboard page")
	}
}

type latestResponse struct {
	Live   bool                   `json:"live"`
	Sample models.TelemetrySample `json:"sample"`
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	sample, live := s.tracker.Latest()
	s.writeJSON(w, latestResponse{Live: live, Sample: sample})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	s.writeJSON(w, s.tracker.History(limit))
}

// handleTrack responds with a GeoJSON FeatureCollection holding the
// valid-fix history as a LineString plus the latest fix as a Point, ready
// for the map layer.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	fc := geojson.NewFeatureCollection()

	line := geojson.NewFeature(orb.LineString{})
	for _, sample := range s.tracker.Snapshot() {
		if !sample.HasValidFix() {
			continue
		}
		line.Geometry = append(line.Geometry.(orb.LineString), orb.Point{sample.Longitude, sample.Latitude})
	}
	line.Properties["points"] = len(line.Geometry.(orb.LineString))
	fc.Append(line)

	if latest, live := s.tracker.Latest(); live && latest.HasValidFix() {
		position := geojson.NewFeature(orb.Point{latest.Longitude, latest.Latitude})
		position.Properties["source"] = string(latest.Source)
		position.Properties["speed"] = latest.Speed
		fc.Append(position)
	}

	s.writeJSON(w, fc)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	field := query.Get("field")
	if field == "" {
		field = "speed"
	}

	window := s.smoothingWindow
	if raw := query.Get("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "invalid window")
			return
		}
		window = parsed
	}

	limit := s.chartSamples
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	series, err := charting.BuildSeries(s.tracker.History(limit), field, window)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, series)
}

type statusResponse struct {
	models.TrackerStatus
	Clients int               `json:"clients"`
	Health  models.HostHealth `json:"health"`
	Notices []models.Notice   `json:"notices"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, statusResponse{
		TrackerStatus: s.tracker.Status(),
		Clients:       s.hub.Count(),
		Health:        s.health.Snapshot(r.Context()),
		Notices:       s.tracker.Notices(),
	})
}

func (s *Server) handleLinkScan(w http.ResponseWriter, r *http.Request) {
	devices, err := s.link.Scan(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Device scan failed")
		s.writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	if devices == nil {
		devices = []models.DeviceAnnouncement{}
	}
	s.writeJSON(w, devices)
}

type connectRequest struct {
	DeviceID string `json:"device_id"`
}

func (s *Server) handleLinkConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	if err := s.link.Connect(req.DeviceID); err != nil {
		s.logger.Error().Err(err).Str("device_id", req.DeviceID).Msg("Device connect failed")
		s.writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, s.tracker.Status())
}

func (s *Server) handleLinkDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.link.Disconnect(); err != nil {
		s.logger.Error().Err(err).Msg("Device disconnect failed")
		s.writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, s.tracker.Status())
}

type exportResponse struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	samples := s.tracker.Snapshot()

	path, err := s.exporter.Export(samples)
	if err != nil {
		s.logger.Error().Err(err).Msg("History export failed")
		s.tracker.Notify(models.NoticeError, "export", err.Error())
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.tracker.RecordExport()
	s.writeJSON(w, exportResponse{Path: path, Count: len(samples)})
}

func (s *Server) handleSpeedChart(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	samples := s.tracker.History(s.chartSamples)
	if err := charting.RenderSpeedChart(w, samples, s.smoothingWindow); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render speed chart")
	}
}

func (s *Server) handleAttitudeChart(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	samples := s.tracker.History(s.chartSamples)
	if err := charting.RenderAttitudeChart(w, samples, s.smoothingWindow); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render attitude chart")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write error response")
	}
}

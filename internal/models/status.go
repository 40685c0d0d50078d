package models

import "time"

// LinkState describes the device link as shown to the operator.
type LinkState string

const (
	LinkIdle         LinkState = "idle"
	LinkConnecting   LinkState = "connecting"
	LinkConnected    LinkState = "connected"
	LinkDisconnected LinkState = "disconnected"
)

// TrackerStatus is the live state snapshot served by the status API.
type TrackerStatus struct {
	LinkState         LinkState `json:"link_state"`
	ConnectedDevice   string    `json:"connected_device,omitempty"`
	PhoneTracking     bool      `json:"phone_tracking"`
	ContinuingToTrack bool      `json:"continuing_to_track"`
	LastDeviceAt      time.Time `json:"last_device_at"`
	HistoryLen        int       `json:"history_len"`
	SamplesAccepted   uint64    `json:"samples_accepted"`
	PhoneDropped      uint64    `json:"phone_dropped"`
	DecodeErrors      uint64    `json:"decode_errors"`
	Exports           uint64    `json:"exports"`
}

// HealthMetric is one collected host measurement with its unit.
type HealthMetric struct {
	Value interface{} `json:"value"`
	Unit  string      `json:"unit"`
}

// HostHealth is a point-in-time snapshot of the host running the dashboard.
type HostHealth struct {
	Timestamp time.Time               `json:"timestamp"`
	Metrics   map[string]HealthMetric `json:"metrics"`
}

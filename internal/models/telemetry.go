package models

import "time"

// Source identifies which side of the system produced a telemetry sample.
type Source string

const (
	// SourceDevice marks samples received from the tracker device over the link.
	SourceDevice Source = "device"
	// SourcePhone marks samples produced by the host's own location provider.
	SourcePhone Source = "phone"
)

// TelemetrySample is a single telemetry reading. Position and motion fields
// default to zero when the sender omits them; a zero lat/lon pair is treated
// as "no fix" rather than a real coordinate.
type TelemetrySample struct {
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lon"`
	Speed      float64   `json:"speed"`
	Roll       float64   `json:"roll"`
	Pitch      float64   `json:"pitch"`
	Yaw        float64   `json:"yaw"`
	AccelX     float64   `json:"ax"`
	AccelY     float64   `json:"ay"`
	AccelZ     float64   `json:"az"`
	GyroX      float64   `json:"gx"`
	GyroY      float64   `json:"gy"`
	GyroZ      float64   `json:"gz"`
	Alert      string    `json:"alert"`
	Activity   string    `json:"activity"`
	Source     Source    `json:"source"`
	ReceivedAt time.Time `json:"-"`
}

// HasValidFix reports whether the sample carries usable coordinates.
// Exactly (0, 0) is the sentinel for "no fix yet".
func (s *TelemetrySample) HasValidFix() bool {
	return s.Latitude != 0 && s.Longitude != 0
}

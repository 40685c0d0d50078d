package models

import "time"

// DeviceAnnouncement is the retained presence message a tracker device
// publishes on its announce topic. Scanning collects these.
type DeviceAnnouncement struct {
	DeviceID string    `json:"device_id"`
	Name     string    `json:"device_name,omitempty"`
	Firmware string    `json:"firmware,omitempty"`
	SeenAt   time.Time `json:"seen_at"`
}

package constants

// Topic suffixes under the configured topic prefix. A device with ID
// "tracker-01" and prefix "fleet" announces on "fleet/tracker-01/announce"
// and streams on "fleet/tracker-01/telemetry".
const (
	TopicAnnounceSuffix  = "announce"
	TopicTelemetrySuffix = "telemetry"
)

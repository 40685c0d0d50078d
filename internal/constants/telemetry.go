package constants

const (
	// DefaultHistoryCapacity bounds the in-memory sample history.
	DefaultHistoryCapacity = 1000
	// DefaultSmoothingWindow is the moving-average window for chart series.
	DefaultSmoothingWindow = 5
	// DefaultChartSamples is how many recent samples chart series draw from.
	DefaultChartSamples = 100
	// DefaultStaleWindow is how long after the last device sample the UI
	// keeps reporting an uninterrupted track (seconds).
	DefaultStaleWindowSeconds = 30
	// DefaultEventQueueSize bounds the tracker's inbound event queue.
	DefaultEventQueueSize = 256
	// DefaultNoticeCapacity bounds the retained user-facing notices.
	DefaultNoticeCapacity = 50
)

// Default sample annotations. The device link path and the phone fallback
// path use different default pairs; both sets are load-bearing for the UI,
// so they are kept distinct rather than unified.
const (
	AlertNone          = "None"
	AlertNormal        = "Normal"
	ActivityUnknown    = "Unknown"
	ActivityStationary = "Stationary"
)

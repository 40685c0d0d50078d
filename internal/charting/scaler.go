package charting

import (
	"math"

	"github.com/montanaflynn/stats"
)

// AxisRange bounds a chart axis, with interval as the gridline step.
type AxisRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Interval float64 `json:"interval"`
}

// ScaleRange picks display bounds for a value series. Near-constant series
// get a fixed half-width of 2.5 around the midpoint so the chart never
// collapses to a flat line on a degenerate axis; everything else gets 30%
// padding on both ends. Total, never fails.
func ScaleRange(values []float64) AxisRange {
	if len(values) == 0 {
		return AxisRange{Min: 0, Max: 10, Interval: 2}
	}

	data := stats.Float64Data(values)
	minVal, _ := data.Min()
	maxVal, _ := data.Max()

	spread := math.Abs(maxVal - minVal)
	if spread < 0.5 {
		mid := (minVal + maxVal) / 2
		return AxisRange{Min: mid - 2.5, Max: mid + 2.5, Interval: 1.0}
	}

	padding := spread * 0.3
	scaled := AxisRange{Min: minVal - padding, Max: maxVal + padding}
	scaled.Interval = gridInterval(scaled.Max - scaled.Min)
	return scaled
}

// gridInterval maps the padded total range onto a readable gridline step.
func gridInterval(totalRange float64) float64 {
	switch {
	case totalRange < 5:
		return 1.0
	case totalRange < 10:
		return 2.0
	case totalRange < 20:
		return 5.0
	default:
		return 10.0
	}
}

package charting

import (
	"fmt"

	"github.com/benmeehan/iot-dashboard/internal/models"
	"github.com/montanaflynn/stats"
)

// ChartableFields lists the sample fields the series API can plot.
var ChartableFields = []string{
	"speed", "roll", "pitch", "yaw",
	"ax", "ay", "az", "gx", "gy", "gz",
	"lat", "lon",
}

// SeriesSummary carries headline statistics for a plotted field.
type SeriesSummary struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Series is everything one chart draw needs: the raw and smoothed values
// in sample order, x-axis labels, axis bounds and summary statistics.
type Series struct {
	Field    string        `json:"field"`
	Labels   []string      `json:"labels"`
	Raw      []float64     `json:"raw"`
	Smoothed []float64     `json:"smoothed"`
	Window   int           `json:"window"`
	Range    AxisRange     `json:"range"`
	Summary  SeriesSummary `json:"summary"`
}

// BuildSeries extracts one field from the samples (oldest first), smooths
// it and computes the display range. The range is taken over the raw
// values so both traces always fit. Unknown field names error.
func BuildSeries(samples []models.TelemetrySample, field string, window int) (Series, error) {
	extract, err := fieldExtractor(field)
	if err != nil {
		return Series{}, err
	}

	raw := make([]float64, 0, len(samples))
	labels := make([]string, 0, len(samples))
	for _, s := range samples {
		raw = append(raw, extract(s))
		labels = append(labels, s.ReceivedAt.Format("15:04:05"))
	}

	return Series{
		Field:    field,
		Labels:   labels,
		Raw:      raw,
		Smoothed: Smooth(raw, window),
		Window:   window,
		Range:    ScaleRange(raw),
		Summary:  summarize(raw),
	}, nil
}

func summarize(values []float64) SeriesSummary {
	if len(values) == 0 {
		return SeriesSummary{}
	}
	data := stats.Float64Data(values)
	mean, _ := data.Mean()
	minVal, _ := data.Min()
	maxVal, _ := data.Max()
	return SeriesSummary{Mean: mean, Min: minVal, Max: maxVal}
}

func fieldExtractor(field string) (func(models.TelemetrySample) float64, error) {
	switch field {
	case "speed":
		return func(s models.TelemetrySample) float64 { return s.Speed }, nil
	case "roll":
		return func(s models.TelemetrySample) float64 { return s.Roll }, nil
	case "pitch":
		return func(s models.TelemetrySample) float64 { return s.Pitch }, nil
	case "yaw":
		return func(s models.TelemetrySample) float64 { return s.Yaw }, nil
	case "ax":
		return func(s models.TelemetrySample) float64 { return s.AccelX }, nil
	case "ay":
		return func(s models.TelemetrySample) float64 { return s.AccelY }, nil
	case "az":
		return func(s models.TelemetrySample) float64 { return s.AccelZ }, nil
	case "gx":
		return func(s models.TelemetrySample) float64 { return s.GyroX }, nil
	case "gy":
		return func(s models.TelemetrySample) float64 { return s.GyroY }, nil
	case "gz":
		return func(s models.TelemetrySample) float64 { return s.GyroZ }, nil
	case "lat":
		return func(s models.TelemetrySample) float64 { return s.Latitude }, nil
	case "lon":
		return func(s models.TelemetrySample) float64 { return s.Longitude }, nil
	default:
		return nil, fmt.Errorf("unknown chart field %q", field)
	}
}

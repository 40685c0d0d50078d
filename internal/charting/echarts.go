package charting

import (
	"fmt"
	"io"

	"github.com/benmeehan/iot-dashboard/internal/models"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderSpeedChart writes a standalone HTML page with the raw and smoothed
// speed traces to w.
func RenderSpeedChart(w io.Writer, samples []models.TelemetrySample, window int) error {
	series, err := BuildSeries(samples, "speed", window)
	if err != nil {
		return err
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Speed", Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Speed",
			Subtitle: fmt.Sprintf("window=%d samples=%d", window, len(samples)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: series.Range.Min, Max: series.Range.Max}),
	)
	line.SetXAxis(series.Labels).
		AddSeries("speed", lineData(series.Raw)).
		AddSeries("smoothed", lineData(series.Smoothed))

	return line.Render(w)
}

// RenderAttitudeChart writes a standalone HTML page with the smoothed
// roll, pitch and yaw traces to w. The axis covers all three fields.
func RenderAttitudeChart(w io.Writer, samples []models.TelemetrySample, window int) error {
	roll, err := BuildSeries(samples, "roll", window)
	if err != nil {
		return err
	}
	pitch, err := BuildSeries(samples, "pitch", window)
	if err != nil {
		return err
	}
	yaw, err := BuildSeries(samples, "yaw", window)
	if err != nil {
		return err
	}

	combined := make([]float64, 0, 3*len(samples))
	combined = append(combined, roll.Raw...)
	combined = append(combined, pitch.Raw...)
	combined = append(combined, yaw.Raw...)
	axis := ScaleRange(combined)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Attitude", Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Attitude",
			Subtitle: fmt.Sprintf("window=%d samples=%d", window, len(samples)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: axis.Min, Max: axis.Max}),
	)
	line.SetXAxis(roll.Labels).
		AddSeries("roll", lineData(roll.Smoothed)).
		AddSeries("pitch", lineData(pitch.Smoothed)).
		AddSeries("yaw", lineData(yaw.Smoothed))

	return line.Render(w)
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, 0, len(values))
	for _, v := range values {
		data = append(data, opts.LineData{Value: v})
	}
	return data
}

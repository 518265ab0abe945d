// Package charts renders run diagnostics as self-contained HTML documents.
package charts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteFrameIntervals writes a line chart of per-frame intervals to path,
// with reference lines at the nominal frame duration and at twice that (a
// dropped frame). The nominal duration is estimated as the median interval.
func WriteFrameIntervals(path string, intervals []float64) error {
	if len(intervals) == 0 {
		return fmt.Errorf("no frame intervals recorded")
	}

	nominal := median(intervals)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Frame Intervals",
			Subtitle: fmt.Sprintf("nominal %.5f s/frame", nominal),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "value",
			Name: "Frame nr",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Name:  "Interval (sec.)",
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	measured := make([]opts.LineData, 0, len(intervals))
	nominalLine := make([]opts.LineData, 0, len(intervals))
	droppedLine := make([]opts.LineData, 0, len(intervals))
	for i, v := range intervals {
		measured = append(measured, opts.LineData{Value: []interface{}{i, v}})
		nominalLine = append(nominalLine, opts.LineData{Value: []interface{}{i, nominal}})
		droppedLine = append(droppedLine, opts.LineData{Value: []interface{}{i, 2 * nominal}})
	}

	line.AddSeries("measured", measured,
		charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	line.AddSeries("nominal", nominalLine,
		charts.WithLineStyleOpts(opts.LineStyle{Width: 1, Type: "dashed"}))
	line.AddSeries("dropped-frame threshold", droppedLine,
		charts.WithLineStyleOpts(opts.LineStyle{Width: 1, Type: "dashed"}))

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create chart directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create chart file: %w", err)
	}
	defer f.Close()
	if err := line.Render(f); err != nil {
		return fmt.Errorf("could not render chart: %w", err)
	}
	return f.Close()
}

func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

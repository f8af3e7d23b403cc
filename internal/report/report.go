// Package report renders session history as browser-viewable charts.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/reachwell/reachwell/internal/coach"
)

// RenderHTML writes an HTML session report: wrist height traces with the
// target line overlaid, and the hold/progress series for calibration
// sessions. Coordinates are normalised screen space, so the Y axis is
// inverted to match what the camera sees.
func RenderHTML(w io.Writer, st coach.Status, samples []coach.Sample) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples recorded for session %s", st.SessionID)
	}

	var (
		x        []string
		left     []opts.LineData
		right    []opts.LineData
		target   []opts.LineData
		progress []opts.LineData
		start    = samples[0].T
	)
	for _, s := range samples {
		x = append(x, s.T.Sub(start).Truncate(100*time.Millisecond).String())
		left = append(left, opts.LineData{Value: s.LeftWristY})
		right = append(right, opts.LineData{Value: s.RightWristY})
		target = append(target, opts.LineData{Value: s.TargetY})
		progress = append(progress, opts.LineData{Value: s.Progress})
	}

	trail := charts.NewLine()
	trail.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Session Report", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Wrist Height",
			Subtitle: fmt.Sprintf("session=%s user=%s frames=%d", st.SessionID, st.UserID, st.Frames),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "Y (normalised, 0 = top)"}),
	)
	trail.SetXAxis(x).
		AddSeries("left wrist", left).
		AddSeries("right wrist", right)
	if st.Mode == coach.ModeExercising || hasTarget(samples) {
		trail.AddSeries("target", target)
	}

	page := components.NewPage()
	page.AddCharts(trail)

	if st.Mode == coach.ModeCalibrating || hasProgress(samples) {
		hold := charts.NewLine()
		hold.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "300px"}),
			charts.WithTitleOpts(opts.Title{Title: "Hold Progress"}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
		)
		hold.SetXAxis(x).AddSeries("progress", progress)
		page.AddCharts(hold)
	}

	return page.Render(w)
}

func hasTarget(samples []coach.Sample) bool {
	for _, s := range samples {
		if s.TargetY > 0 {
			return true
		}
	}
	return false
}

func hasProgress(samples []coach.Sample) bool {
	for _, s := range samples {
		if s.Progress > 0 {
			return true
		}
	}
	return false
}

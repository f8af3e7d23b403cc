package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/reachwell/reachwell/internal/coach"
)

// RenderTrailPNG writes a static PNG of the wrist height trail, suitable
// for attaching to exported session records.
func RenderTrailPNG(w io.Writer, samples []coach.Sample) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to plot")
	}

	p := plot.New()
	p.Title.Text = "Wrist Height Trail"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Y (normalised)"
	// Screen Y grows downward. Flip the axis so up on the plot is up on
	// the body.
	p.Y.Min = 1
	p.Y.Max = 0

	leftPts := make(plotter.XYs, 0, len(samples))
	rightPts := make(plotter.XYs, 0, len(samples))
	targetPts := make(plotter.XYs, 0, len(samples))
	for i, s := range samples {
		if s.LeftWristY > 0 {
			leftPts = append(leftPts, plotter.XY{X: float64(i), Y: s.LeftWristY})
		}
		if s.RightWristY > 0 {
			rightPts = append(rightPts, plotter.XY{X: float64(i), Y: s.RightWristY})
		}
		if s.TargetY > 0 {
			targetPts = append(targetPts, plotter.XY{X: float64(i), Y: s.TargetY})
		}
	}

	if len(leftPts) > 0 {
		line, err := plotter.NewLine(leftPts)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("left wrist", line)
	}
	if len(rightPts) > 0 {
		line, err := plotter.NewLine(rightPts)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("right wrist", line)
	}
	if len(targetPts) > 0 {
		line, err := plotter.NewLine(targetPts)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
		line.Width = vg.Points(1)
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(line)
		p.Legend.Add("target", line)
	}

	p.Legend.Top = true

	wt, err := p.WriterTo(12*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to render trail plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

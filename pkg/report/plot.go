package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/teslashibe/go-posecoach/pkg/pose"
)

var jointRGBA = map[pose.JointID]color.RGBA{
	pose.RightArm: {R: 74, G: 210, B: 149, A: 255},
	pose.LeftArm:  {R: 127, G: 176, B: 105, A: 255},
	pose.RightLeg: {R: 255, G: 107, B: 107, A: 255},
	pose.LeftLeg:  {R: 78, G: 205, B: 196, A: 255},
}

// AccuracyPlot builds a static accuracy-over-time plot with one line per
// joint and the overall accuracy.
func AccuracyPlot(points []SeriesPoint, joints []pose.JointID) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Pose Accuracy"
	p.X.Label.Text = "Seconds"
	p.Y.Label.Text = "Accuracy (%)"
	p.Y.Min = 0
	p.Y.Max = 100

	for _, j := range joints {
		pts := make(plotter.XYs, 0, len(points))
		for _, sp := range points {
			if v, ok := sp.Joints[j]; ok {
				pts = append(pts, plotter.XY{X: sp.Offset.Seconds(), Y: v})
			}
		}
		if len(pts) == 0 {
			continue
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		if c, ok := jointRGBA[j]; ok {
			l.Color = c
		}
		l.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add(j.Label(), l)
	}

	if len(points) > 0 {
		pts := make(plotter.XYs, len(points))
		for i, sp := range points {
			pts[i] = plotter.XY{X: sp.Offset.Seconds(), Y: sp.Overall}
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		l.Width = vg.Points(2)
		l.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(l)
		p.Legend.Add("Overall", l)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePNG renders the accuracy plot as a PNG image.
func WritePNG(w io.Writer, points []SeriesPoint, joints []pose.JointID) error {
	p, err := AccuracyPlot(points, joints)
	if err != nil {
		return fmt.Errorf("build plot: %w", err)
	}
	wt, err := p.WriterTo(10*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("encode plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}

package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/session"
)

// jointColors match the practice dashboard palette.
var jointColors = map[pose.JointID]string{
	pose.RightArm: "rgb(74, 210, 149)",
	pose.LeftArm:  "rgb(127, 176, 105)",
	pose.RightLeg: "rgb(255, 107, 107)",
	pose.LeftLeg:  "rgb(78, 205, 196)",
}

const overallColor = "rgb(90, 90, 90)"

func offsetLabel(d time.Duration) string {
	return fmt.Sprintf("%gs", d.Round(100*time.Millisecond).Seconds())
}

// AccuracyChart draws one line per joint plus the overall accuracy.
func AccuracyChart(points []SeriesPoint, joints []pose.JointID) *charts.Line {
	labels := make([]string, len(points))
	overall := make([]opts.LineData, len(points))
	for i, p := range points {
		labels[i] = offsetLabel(p.Offset)
		overall[i] = opts.LineData{Value: round1(p.Overall)}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Real-time Pose Accuracy"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100, Name: "%"}),
	)
	line.SetXAxis(labels)

	for _, j := range joints {
		data := make([]opts.LineData, len(points))
		for i, p := range points {
			if v, ok := p.Joints[j]; ok {
				data[i] = opts.LineData{Value: round1(v)}
			} else {
				data[i] = opts.LineData{Value: "-"}
			}
		}
		line.AddSeries(j.Label(), data,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: colorFor(j)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorFor(j)}),
		)
	}
	line.AddSeries("Overall", overall,
		charts.WithLineStyleOpts(opts.LineStyle{Color: overallColor, Type: "dashed"}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: overallColor}),
	)
	return line
}

// BreakdownChart compares target and current angles per joint.
func BreakdownChart(rows []JointBreakdown) *charts.Bar {
	labels := make([]string, len(rows))
	target := make([]opts.BarData, len(rows))
	current := make([]opts.BarData, len(rows))
	for i, r := range rows {
		labels[i] = r.Label
		target[i] = opts.BarData{Value: round1(r.Target)}
		current[i] = opts.BarData{Value: round1(r.Current)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Pose Accuracy Breakdown", Subtitle: "degrees"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	bar.SetXAxis(labels).
		AddSeries("Target", target).
		AddSeries("Current", current, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

// ProgressChart draws one bar per session, oldest first.
func ProgressChart(entries []HistoryEntry) *charts.Bar {
	labels := make([]string, len(entries))
	data := make([]opts.BarData, len(entries))
	for i, e := range entries {
		labels[i] = fmt.Sprintf("Session %d", i+1)
		data[i] = opts.BarData{Value: round1(e.Average), Name: e.Pose}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Session Progress"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100, Name: "%"}),
	)
	bar.SetXAxis(labels).
		AddSeries("Overall Accuracy", data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: jointColors[pose.RightArm]}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// RenderSessionPage writes an HTML page with the session's accuracy
// chart, averaged into windows of bucket, and its latest breakdown.
func RenderSessionPage(w io.Writer, s *session.Session, bucket time.Duration) error {
	points := Bucket(ToTimeSeries(s), bucket)
	joints := s.Reference().Joints()

	page := components.NewPage()
	page.AddCharts(AccuracyChart(points, joints))
	if rows := Breakdown(s); len(rows) > 0 {
		page.AddCharts(BreakdownChart(rows))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render session page: %w", err)
	}
	return nil
}

// RenderProgressPage writes an HTML page with one bar per session.
func RenderProgressPage(w io.Writer, entries []HistoryEntry) error {
	page := components.NewPage()
	page.AddCharts(ProgressChart(entries))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render progress page: %w", err)
	}
	return nil
}

func colorFor(j pose.JointID) string {
	if c, ok := jointColors[j]; ok {
		return c
	}
	return overallColor
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

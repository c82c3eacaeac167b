// Package report projects sessions into read-only views for dashboards:
// time series, summaries, per-joint breakdowns, history overviews and
// rendered charts. Nothing here mutates a session.
package report

import (
	"time"

	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/session"
)

// SeriesPoint is one observation flattened for charting.
type SeriesPoint struct {
	Seq       uint64                   `json:"seq"`
	Timestamp time.Time                `json:"timestamp"`
	Offset    time.Duration            `json:"offset"` // since session start
	Joints    map[pose.JointID]float64 `json:"joints"` // accuracy per joint
	Overall   float64                  `json:"overall"`
	Tier      pose.FeedbackTier        `json:"tier"`
}

// ToTimeSeries returns one point per recorded observation in recording
// order.
func ToTimeSeries(s *session.Session) []SeriesPoint {
	obs := s.Observations()
	start := s.StartTime()

	points := make([]SeriesPoint, len(obs))
	for i, o := range obs {
		joints := make(map[pose.JointID]float64, len(o.JointScores))
		for _, js := range o.JointScores {
			joints[js.Joint] = js.Accuracy
		}
		ts := o.Observation.Timestamp()
		points[i] = SeriesPoint{
			Seq:       o.Observation.Seq(),
			Timestamp: ts,
			Offset:    ts.Sub(start),
			Joints:    joints,
			Overall:   o.OverallAccuracy,
			Tier:      o.Tier,
		}
	}
	return points
}

// ToSummary returns the session summary.
func ToSummary(s *session.Session) session.Summary {
	return session.Summarize(s)
}

// Bucket averages points into consecutive windows of width measured from
// the session start. Empty windows are omitted. Each output point carries
// the window end as its Offset and the last Seq and Timestamp in the
// window; Tier is left at the zero value.
func Bucket(points []SeriesPoint, width time.Duration) []SeriesPoint {
	if width <= 0 || len(points) == 0 {
		return points
	}

	var (
		out    []SeriesPoint
		cur    int64 = -1
		count  int
		sum    float64
		jsum   map[pose.JointID]float64
		jcount map[pose.JointID]int
		last   SeriesPoint
	)

	flush := func() {
		if count == 0 {
			return
		}
		joints := make(map[pose.JointID]float64, len(jsum))
		for j, v := range jsum {
			joints[j] = v / float64(jcount[j])
		}
		out = append(out, SeriesPoint{
			Seq:       last.Seq,
			Timestamp: last.Timestamp,
			Offset:    time.Duration(cur+1) * width,
			Joints:    joints,
			Overall:   sum / float64(count),
		})
	}

	for _, p := range points {
		idx := int64(p.Offset / width)
		if p.Offset > 0 && p.Offset%width == 0 {
			idx--
		}
		if idx != cur {
			flush()
			cur = idx
			count, sum = 0, 0
			jsum = make(map[pose.JointID]float64)
			jcount = make(map[pose.JointID]int)
		}
		count++
		sum += p.Overall
		for j, v := range p.Joints {
			jsum[j] += v
			jcount[j]++
		}
		last = p
	}
	flush()
	return out
}

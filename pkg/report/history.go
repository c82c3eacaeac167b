package report

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/session"
)

// HistoryEntry is one past session as listed on the progress page.
type HistoryEntry struct {
	SessionID string            `json:"session_id"`
	Pose      string            `json:"pose"`
	StartTime time.Time         `json:"start_time"`
	Duration  time.Duration     `json:"duration"`
	Count     int               `json:"count"`
	Average   float64           `json:"average"`
	Best      float64           `json:"best"`
	Tier      pose.FeedbackTier `json:"tier"`
}

// EntryFromSummary builds a history entry; tier classifies the average.
func EntryFromSummary(sum session.Summary, tier pose.FeedbackTier) HistoryEntry {
	return HistoryEntry{
		SessionID: sum.SessionID,
		Pose:      sum.Pose,
		StartTime: sum.StartTime,
		Duration:  sum.Duration,
		Count:     sum.Count,
		Average:   sum.Average,
		Best:      sum.Best,
		Tier:      tier,
	}
}

// ProgressOverview aggregates history across sessions.
type ProgressOverview struct {
	Sessions        int           `json:"sessions"`
	AverageAccuracy float64       `json:"average_accuracy"`
	PracticeTime    time.Duration `json:"practice_time"`

	// Improvement is the newest session average minus the oldest.
	Improvement float64 `json:"improvement"`

	// PosesMastered counts distinct poses with a session average at or
	// above the mastered threshold.
	PosesMastered int `json:"poses_mastered"`

	BestSessionID string  `json:"best_session_id,omitempty"`
	BestAverage   float64 `json:"best_average"`
}

// Overview summarizes entries ordered oldest first.
func Overview(entries []HistoryEntry, masteredThreshold float64) ProgressOverview {
	ov := ProgressOverview{Sessions: len(entries)}
	if len(entries) == 0 {
		return ov
	}

	avgs := make([]float64, len(entries))
	mastered := make(map[string]bool)
	for i, e := range entries {
		avgs[i] = e.Average
		ov.PracticeTime += e.Duration
		if e.Average >= masteredThreshold {
			mastered[e.Pose] = true
		}
	}

	best := floats.MaxIdx(avgs)
	ov.AverageAccuracy = stat.Mean(avgs, nil)
	ov.Improvement = avgs[len(avgs)-1] - avgs[0]
	ov.PosesMastered = len(mastered)
	ov.BestSessionID = entries[best].SessionID
	ov.BestAverage = avgs[best]
	return ov
}

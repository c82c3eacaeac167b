package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/report"
	"github.com/teslashibe/go-posecoach/pkg/session"
)

// RenderSummary formats a session summary.
func RenderSummary(sum session.Summary) string {
	s := newStyles()
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", s.title.Render("Session summary"), s.subtitle.Render(sum.SessionID))
	if sum.Count == 0 {
		b.WriteString(s.detail.Render("no readings recorded"))
		return b.String()
	}

	fmt.Fprintf(&b, "%s %d over %s\n", s.label.Render("Readings"), sum.Count, sum.Duration.Round(time.Second))
	fmt.Fprintf(&b, "%s %.1f%%\n", s.label.Render("Average"), sum.Average)
	fmt.Fprintf(&b, "%s %.1f%%\n", s.label.Render("Best"), sum.Best)
	fmt.Fprintf(&b, "%s %.1f%%\n", s.label.Render("Worst"), sum.Worst)
	fmt.Fprintf(&b, "%s %+.1f\n", s.label.Render("Change"), sum.Improvement)

	joints := jointKeys(sum.JointAccuracy)
	pose.SortJoints(joints)
	for _, j := range joints {
		fmt.Fprintf(&b, "%s %.1f%%  %s\n", s.label.Render(j.Label()), sum.JointAccuracy[j],
			s.detail.Render(fmt.Sprintf("±%.1f°", sum.JointDeviation[j])))
	}
	return strings.TrimRight(b.String(), "\n")
}

func jointKeys(m map[pose.JointID]float64) []pose.JointID {
	out := make([]pose.JointID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// RenderHistory formats history entries as a table, newest last.
func RenderHistory(entries []report.HistoryEntry) string {
	s := newStyles()
	if len(entries) == 0 {
		return s.detail.Render("no sessions yet")
	}

	cell := lipgloss.NewStyle().Width(14)
	var b strings.Builder
	b.WriteString(s.subtitle.Render(
		cell.Render("DATE") + cell.Render("POSE") + cell.Render("DURATION") + cell.Render("AVERAGE") + "TIER"))
	b.WriteString("\n")
	for _, e := range entries {
		b.WriteString(cell.Render(e.StartTime.Local().Format("Jan 02 15:04")))
		b.WriteString(cell.Render(e.Pose))
		b.WriteString(cell.Render(e.Duration.Round(time.Second).String()))
		b.WriteString(cell.Render(fmt.Sprintf("%.1f%%", e.Average)))
		b.WriteString(tierStyle(e.Tier).Render(e.Tier.Label()))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderOverview formats progress totals.
func RenderOverview(o report.ProgressOverview) string {
	s := newStyles()
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", s.label.Render("Sessions"), o.Sessions)
	fmt.Fprintf(&b, "%s %.1f%%\n", s.label.Render("Average"), o.AverageAccuracy)
	fmt.Fprintf(&b, "%s %s\n", s.label.Render("Practice"), o.PracticeTime.Round(time.Second))
	fmt.Fprintf(&b, "%s %+.1f\n", s.label.Render("Progress"), o.Improvement)
	fmt.Fprintf(&b, "%s %d", s.label.Render("Mastered"), o.PosesMastered)
	return b.String()
}

// RenderPoses lists the exercise library.
func RenderPoses(exercises []pose.Exercise) string {
	s := newStyles()
	var b strings.Builder
	for _, e := range exercises {
		fmt.Fprintf(&b, "%s %s\n", s.title.Render(e.Key), s.subtitle.Render(e.Name+" · "+e.Difficulty))
		refs := e.Reference()
		var targets []string
		for _, j := range refs.Joints() {
			t, _ := refs.Target(j)
			targets = append(targets, fmt.Sprintf("%s %.0f°", j.Label(), t))
		}
		b.WriteString("  " + s.detail.Render(strings.Join(targets, ", ")) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

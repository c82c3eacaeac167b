// Package ui renders the terminal practice view and text reports.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/teslashibe/go-posecoach/pkg/coach"
	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/scoring"
	"github.com/teslashibe/go-posecoach/pkg/session"
)

const defaultBarWidth = 40

// EventMsg carries an engine event into the bubbletea loop.
type EventMsg coach.Event

// Forward returns an engine subscriber that sends events to p.
func Forward(p *tea.Program) func(coach.Event) {
	return func(ev coach.Event) { p.Send(EventMsg(ev)) }
}

// Model is the live practice view. It quits when the session ends or the
// user presses q.
type Model struct {
	ref        pose.ReferencePose
	classifier *scoring.Classifier
	styles     styles
	bar        progress.Model

	last     pose.ScoredObservation
	scored   bool
	message  string
	detected bool
	rejected int
	lastErr  error

	summary *session.Summary
	cause   error
	quit    bool
}

// NewModel creates a practice view for ref.
func NewModel(ref pose.ReferencePose, classifier *scoring.Classifier) Model {
	return Model{
		ref:        ref,
		classifier: classifier,
		styles:     newStyles(),
		bar:        progress.New(progress.WithWidth(defaultBarWidth), progress.WithoutPercentage()),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-30, 10), 60)
	case EventMsg:
		return m.handleEvent(coach.Event(msg))
	}
	return m, nil
}

func (m Model) handleEvent(ev coach.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case coach.EventScored:
		m.last = ev.Scored
		m.scored = true
		m.message = ev.Message
		m.detected = ev.PoseDetected
	case coach.EventRejected:
		m.rejected++
		m.lastErr = ev.Err
	case coach.EventEnded:
		sum := ev.Summary
		m.summary = &sum
		m.cause = ev.Err
		return m, tea.Quit
	}
	return m, nil
}

// Quit reports whether the user asked to stop.
func (m Model) Quit() bool {
	return m.quit
}

// Summary returns the final summary once the session has ended.
func (m Model) Summary() (session.Summary, bool) {
	if m.summary == nil {
		return session.Summary{}, false
	}
	return *m.summary, true
}

func (m Model) coloredBar(accuracy float64) string {
	tier := m.classifier.Classify(accuracy)
	bar := m.bar
	bar.FullColor = tierColors[tier]
	return bar.ViewAs(accuracy / 100)
}

func (m Model) View() string {
	var b strings.Builder
	s := m.styles

	b.WriteString(s.title.Render("posecoach · " + m.ref.Name()))
	b.WriteString("\n")

	if m.summary != nil {
		b.WriteString(s.section.Render(RenderSummary(*m.summary)))
		if m.cause != nil {
			b.WriteString("\n" + s.warning.Render("tracking stopped: "+m.cause.Error()))
		}
		b.WriteString("\n")
		return b.String()
	}

	if !m.scored {
		b.WriteString(s.subtitle.Render("waiting for the first reading…"))
		b.WriteString("\n" + s.help.Render("q to stop") + "\n")
		return b.String()
	}

	tier := m.last.Tier
	fmt.Fprintf(&b, "\n%s %s  %s\n",
		s.label.Render("Accuracy"),
		m.coloredBar(m.last.OverallAccuracy),
		tierStyle(tier).Render(fmt.Sprintf("%d%% %s", m.last.DisplayAccuracy(), tier.Label())))
	if m.detected {
		b.WriteString(s.detected.Render("Pose Detected") + "  ")
	}
	b.WriteString(s.message.Render(m.message) + "\n\n")

	for _, js := range m.last.JointScores {
		fmt.Fprintf(&b, "%s %s  %s\n",
			s.label.Render(js.Joint.Label()),
			m.coloredBar(js.Accuracy),
			s.detail.Render(fmt.Sprintf("%3.0f° → %3.0f°  %3.0f%%", js.Observed, js.Target, js.Accuracy)))
	}

	footer := fmt.Sprintf("reading #%d", m.last.Observation.Seq())
	if m.rejected > 0 {
		footer += fmt.Sprintf(" · %d rejected", m.rejected)
	}
	b.WriteString("\n" + s.help.Render(footer+" · q to stop") + "\n")
	if m.lastErr != nil {
		b.WriteString(s.warning.Render(m.lastErr.Error()) + "\n")
	}
	return b.String()
}

package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/teslashibe/go-posecoach/pkg/pose"
)

// Tier colours: green, yellow and red as on the practice page.
var tierColors = map[pose.FeedbackTier]string{
	pose.Excellent:        "#16a34a",
	pose.Good:             "#ca8a04",
	pose.NeedsImprovement: "#dc2626",
}

type styles struct {
	title    lipgloss.Style
	subtitle lipgloss.Style
	label    lipgloss.Style
	detail   lipgloss.Style
	message  lipgloss.Style
	detected lipgloss.Style
	warning  lipgloss.Style
	help     lipgloss.Style
	section  lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		subtitle: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		label:    lipgloss.NewStyle().Width(10).Foreground(lipgloss.Color("250")),
		detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		message:  lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
		detected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#16a34a")),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		help:     lipgloss.NewStyle().Faint(true),
		section:  lipgloss.NewStyle().MarginTop(1),
	}
}

func tierStyle(t pose.FeedbackTier) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(tierColors[t]))
}

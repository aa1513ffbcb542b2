// Package stats renders the statistics tab: headline numbers and the weekly
// completion histogram.
package stats

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habits/internal/stats"
)

const barHeight = 8

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 2)
)

type Model struct {
	summary stats.Summary
	week    []stats.Day
	width   int
}

func New() Model {
	return Model{}
}

func (m *Model) SetData(summary stats.Summary, week []stats.Day) {
	m.summary = summary
	m.week = week
}

func (m *Model) SetWidth(width int) {
	m.width = width
}

func (m Model) View() string {
	s := m.summary
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Today", fmt.Sprintf("%d/%d", s.CompletedToday, s.DueToday)),
		card("Completions", fmt.Sprintf("%d", s.TotalCompletions)),
		card("Average", fmt.Sprintf("%d%%", int(s.AverageCompletionRate*100+0.5))),
		card("Best streak", fmt.Sprintf("%d", s.LongestStreak)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, cards, "", m.histogram())
}

func card(label, value string) string {
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Center, valueStyle.Render(value), labelStyle.Render(label)))
}

// histogram draws one column per day, scaled to the busiest day.
func (m Model) histogram() string {
	if len(m.week) == 0 {
		return labelStyle.Render("No activity yet.")
	}
	peak := 0
	for _, d := range m.week {
		peak = max(peak, d.Completed)
	}

	cols := make([]string, len(m.week))
	for i, d := range m.week {
		filled := 0
		if peak > 0 {
			filled = (d.Completed*barHeight + peak - 1) / peak
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%3d\n", d.Completed)
		for row := barHeight; row > 0; row-- {
			if row <= filled {
				b.WriteString(barStyle.Render(" ██"))
			} else {
				b.WriteString("   ")
			}
			b.WriteString("\n")
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%4s", d.Label)))
		cols[i] = b.String()
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, cols...)
}

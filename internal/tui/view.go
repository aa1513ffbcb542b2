package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/utils"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.state {
	case constants.StateConfirmDelete:
		return m.place(m.confirmView())
	case constants.StateCelebration:
		return m.place(m.celebrationView())
	case constants.StateAddHabit:
		if m.form != nil {
			return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
				activeTabStyle.Render("New habit"),
				"",
				m.form.View(),
			))
		}
	}

	var body string
	if m.state == constants.StateStats {
		body = m.stats.View()
	} else {
		body = m.habitList.View()
	}

	parts := []string{m.tabs(), m.header(), body}
	if m.err != nil {
		parts = append(parts, errorStyle.Render("Changes may not have been saved: "+m.err.Error()))
	}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, m.help.View(m.keys))
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) tabs() string {
	render := func(label string, state constants.SessionState) string {
		if m.state == state {
			return activeTabStyle.Render(label)
		}
		return inactiveTabStyle.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		render("Habits", constants.StateHabits),
		render("Stats", constants.StateStats),
	)
}

func (m Model) header() string {
	now := m.mgr.Now()
	s := m.mgr.Summary()
	day := constants.WeekdayNames[utils.Weekday(now)-1]
	return headerStyle.Render(fmt.Sprintf("%s, %s · %d/%d done (%d%%)",
		day, utils.DayKey(now), s.CompletedToday, s.DueToday, s.TodayPercent))
}

func (m Model) confirmView() string {
	msg := "Are you sure?"
	if m.confirm != nil {
		msg = m.confirm.Message
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(1, 3).
		Render(lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(msg),
			"",
			"(y) yes    (n) no",
		))
}

func (m Model) celebrationView() string {
	banner := figure.NewFigure("Parabens!", "basic", false).String()
	return celebrationStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		banner,
		constants.CelebrationTitle,
		constants.CelebrationMessage,
		"",
		statusStyle.Render("press any key"),
	))
}

func (m Model) place(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

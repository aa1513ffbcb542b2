package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/habits"
	"github.com/julianstephens/habits/internal/tui/components/habitlist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		if m.form != nil {
			form, cmd := m.form.Update(msg)
			if f, ok := form.(*huh.Form); ok {
				m.form = f
			}
			return m, cmd
		}
		return m, nil

	case eventMsg:
		if msg.event == habits.EventDailyGoalsCompleted && m.state != constants.StateAddHabit {
			m.state = constants.StateCelebration
		}
		return m, waitForEvent(m.events)

	case changedMsg:
		m.status = msg.status
		m.refresh()
		return m, nil

	case constants.ConfirmationMsg:
		m.confirm = &msg
		m.state = constants.StateConfirmDelete
		return m, nil

	case habitlist.ToggleHabitMsg:
		return m.toggle(msg.ID)

	case habitlist.AddHabitMsg:
		m.draft = newHabitForm()
		m.form = m.draft.build()
		m.state = constants.StateAddHabit
		return m, m.form.Init()

	case habitlist.DeleteHabitMsg:
		return m, m.confirmDelete(msg.ID, msg.Name)
	}

	switch m.state {
	case constants.StateAddHabit:
		return m.updateForm(msg)
	case constants.StateConfirmDelete:
		return m.updateConfirm(msg)
	case constants.StateCelebration:
		if _, ok := msg.(tea.KeyMsg); ok {
			m.state = constants.StateHabits
		}
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case msg.String() == "ctrl+c" || key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize()
			return m, nil
		case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.ShiftTab):
			if m.state == constants.StateHabits {
				m.state = constants.StateStats
			} else {
				m.state = constants.StateHabits
			}
			return m, nil
		case key.Matches(msg, m.keys.Stats):
			m.state = constants.StateStats
			return m, nil
		}
	}

	if m.state == constants.StateHabits {
		var cmd tea.Cmd
		m.habitList, cmd = m.habitList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) toggle(id string) (tea.Model, tea.Cmd) {
	h, ok := m.mgr.Habit(id)
	if !ok {
		m.status = "Habit not found."
		return m, nil
	}
	res := m.mgr.ToggleHabit(context.Background(), id)
	if res.Completed {
		m.status = fmt.Sprintf("✓ %s done today (streak %d)", h.Name, res.Streak)
	} else {
		m.status = fmt.Sprintf("○ %s unmarked (streak %d)", h.Name, res.Streak)
	}
	m.refresh()
	return m, nil
}

func (m Model) confirmDelete(id, name string) tea.Cmd {
	mgr := m.mgr
	return func() tea.Msg {
		return constants.ConfirmationMsg{
			Message: fmt.Sprintf("Delete habit %q and all its history?", name),
			Action: func() tea.Cmd {
				return func() tea.Msg {
					if !mgr.DeleteHabit(context.Background(), id) {
						return changedMsg{status: "Habit not found."}
					}
					return changedMsg{status: fmt.Sprintf("Deleted %s.", name)}
				}
			},
		}
	}
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		action := m.confirm.Action
		m.confirm = nil
		m.state = constants.StateHabits
		return m, action()
	case key.Matches(keyMsg, m.keys.Cancel), keyMsg.String() == "ctrl+c":
		m.confirm = nil
		m.state = constants.StateHabits
		m.status = "Cancelled."
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.closeForm("Cancelled.")
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		d, err := m.draft.draft()
		if err != nil {
			m.closeForm("Not added: " + err.Error())
			return m, nil
		}
		h := m.mgr.AddHabit(context.Background(), d)
		m.closeForm(fmt.Sprintf("Added %s.", h.Name))
		m.refresh()
		return m, nil
	case huh.StateAborted:
		m.closeForm("Cancelled.")
		return m, nil
	}
	return m, cmd
}

func (m *Model) closeForm(status string) {
	m.form = nil
	m.draft = nil
	m.state = constants.StateHabits
	m.status = status
}

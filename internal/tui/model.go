package tui

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/habits"
	"github.com/julianstephens/habits/internal/tui/components/habitlist"
	statsview "github.com/julianstephens/habits/internal/tui/components/stats"
)

// eventMsg carries a domain event from the manager into the update loop.
type eventMsg struct {
	event habits.Event
}

// changedMsg reports that a mutation finished and the views need refreshing.
type changedMsg struct {
	status string
}

type Model struct {
	mgr       *habits.Manager
	events    chan habits.Event
	state     constants.SessionState
	keys      KeyMap
	help      help.Model
	habitList habitlist.Model
	stats     statsview.Model
	form      *huh.Form
	draft     *habitForm
	confirm   *constants.ConfirmationMsg
	status    string
	err       error
	width     int
	height    int
	quitting  bool
}

func NewModel(mgr *habits.Manager) Model {
	events := make(chan habits.Event, 8)
	mgr.Subscribe(func(e habits.Event) {
		select {
		case events <- e:
		default:
		}
	})

	m := Model{
		mgr:       mgr,
		events:    events,
		state:     constants.StateHabits,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		habitList: habitlist.New(mgr.Habits(), mgr.Now(), 0, 0),
		stats:     statsview.New(),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// waitForEvent blocks until the manager publishes the next event.
func waitForEvent(events <-chan habits.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg{event: e}
	}
}

func (m *Model) refresh() {
	now := m.mgr.Now()
	m.habitList.SetHabits(m.mgr.Habits(), now)
	m.stats.SetData(m.mgr.Summary(), m.mgr.WeeklyHistogram())
	m.err = m.mgr.LastError()
}

func (m *Model) resize() {
	// tabs, header, status and help lines plus padding
	chrome := 9
	if m.help.ShowAll {
		chrome += 3
	}
	m.habitList.SetSize(m.width-4, max(m.height-chrome, 3))
	m.stats.SetWidth(m.width - 4)
	m.help.Width = m.width
}

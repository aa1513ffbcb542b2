package habitlist

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habits/internal/models"
)

type ToggleHabitMsg struct {
	ID string
}

type AddHabitMsg struct{}

type DeleteHabitMsg struct {
	ID   string
	Name string
}

type Item struct {
	Habit models.Habit
	Done  bool
	Due   bool
	Rate  float64
}

func (i Item) Title() string {
	mark := "○"
	if i.Done {
		mark = "✓"
	}
	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(i.Habit.Color.Hex())).Render("●")
	return fmt.Sprintf("%s %s %s %s", mark, swatch, models.Glyph(i.Habit.Icon), i.Habit.Name)
}

func (i Item) Description() string {
	desc := fmt.Sprintf("streak %d · %d%% this week · %d/7", i.Habit.Streak, int(i.Rate*100+0.5), i.Habit.Target)
	if i.Due && !i.Done {
		desc += " · due today"
	} else if !i.Due {
		desc += " · rest day"
	}
	return desc
}

func (i Item) FilterValue() string { return i.Habit.Name }

type KeyMap struct {
	Toggle key.Binding
	Add    key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(habits []models.Habit, now time.Time, width, height int) Model {
	keys := DefaultKeyMap()
	l := list.New(items(habits, now), list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Add, keys.Delete}
	}
	return Model{list: l, keys: keys}
}

func items(habits []models.Habit, now time.Time) []list.Item {
	out := make([]list.Item, len(habits))
	for i := range habits {
		h := habits[i]
		out[i] = Item{
			Habit: h,
			Done:  h.CompletedOn(now),
			Due:   h.ShouldBeDoneOn(now),
			Rate:  h.CompletionRate(now),
		}
	}
	return out
}

// SetHabits replaces the rows while keeping the cursor in range.
func (m *Model) SetHabits(habits []models.Habit, now time.Time) {
	idx := m.list.Index()
	m.list.SetItems(items(habits, now))
	if idx >= len(habits) {
		idx = len(habits) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

// Selected returns the highlighted row, if any.
func (m Model) Selected() (Item, bool) {
	item, ok := m.list.SelectedItem().(Item)
	return item, ok
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Toggle):
			if item, ok := m.Selected(); ok {
				return m, func() tea.Msg { return ToggleHabitMsg{ID: item.Habit.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddHabitMsg{} }
		case key.Matches(msg, m.keys.Delete):
			if item, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteHabitMsg{ID: item.Habit.ID, Name: item.Habit.Name} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 2).
			Render("No habits yet. Press 'a' to add one.")
	}
	return m.list.View()
}

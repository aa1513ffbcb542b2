// Package habits owns the in-memory habit collection and user profile. Every
// mutation goes through Manager, which persists the result and keeps the
// reminder scheduler in step.
package habits

import (
	"context"
	"errors"
	"sync"

	"github.com/julianstephens/habits/internal/logger"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/reminders"
	"github.com/julianstephens/habits/internal/stats"
	"github.com/julianstephens/habits/internal/storage"
	"github.com/julianstephens/habits/internal/utils"
)

// Event is a domain event published to subscribers.
type Event int

const (
	// EventDailyGoalsCompleted fires after a toggle that leaves every habit due today completed.
	EventDailyGoalsCompleted Event = iota + 1
)

func (e Event) String() string {
	switch e {
	case EventDailyGoalsCompleted:
		return "daily_goals_completed"
	default:
		return "unknown"
	}
}

// ToggleResult reports what a toggle did.
type ToggleResult struct {
	Found bool
	// Completed is true when the habit is now marked done for today.
	Completed bool
	// AllGoalsCompleted is true when the toggle left every due habit completed.
	AllGoalsCompleted bool
	Streak            int
}

type Manager struct {
	mu      sync.RWMutex
	repo    storage.Repository
	sched   reminders.Scheduler
	clock   utils.Clock
	seed    bool
	habits  []models.Habit
	profile models.UserProfile
	// set once the matching load has succeeded
	habitsLoaded, profileLoaded bool

	subMu       sync.Mutex
	subscribers []func(Event)

	errMu   sync.Mutex
	lastErr error
}

type Option func(*Manager)

// WithClock sets the source of "now". Defaults to the system clock in the local zone.
func WithClock(c utils.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithDemoSeed makes Initialize populate an empty collection with sample habits.
func WithDemoSeed(enabled bool) Option {
	return func(m *Manager) { m.seed = enabled }
}

// New builds a manager. A nil scheduler disables reminder scheduling.
func New(repo storage.Repository, scheduler reminders.Scheduler, opts ...Option) *Manager {
	if scheduler == nil {
		scheduler = noopScheduler{}
	}
	m := &Manager{
		repo:  repo,
		sched: scheduler,
		clock: utils.SystemClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.profile = models.DefaultProfile(m.clock.Now())
	return m
}

// Initialize loads persisted state. On the first call missing or unreadable
// data yields an empty collection and a default profile. Later calls act as a
// reload and keep the current state when a load fails. Demo habits are seeded
// only into a collection that loaded cleanly and is empty.
func (m *Manager) Initialize(ctx context.Context) {
	habits, habitsErr := m.repo.LoadHabits(ctx)
	if errors.Is(habitsErr, storage.ErrNotFound) {
		habits, habitsErr = nil, nil
	}
	profile, profileErr := m.repo.LoadProfile(ctx)
	if errors.Is(profileErr, storage.ErrNotFound) {
		profile, profileErr = models.DefaultProfile(m.clock.Now()), nil
	}

	m.mu.Lock()
	switch {
	case habitsErr == nil:
		m.habits = habits
		m.habitsLoaded = true
	case !m.habitsLoaded:
		m.habits = nil
	}
	switch {
	case profileErr == nil:
		m.profile = profile
		m.profileLoaded = true
	case !m.profileLoaded:
		m.profile = models.DefaultProfile(m.clock.Now())
	}
	seeded := false
	if habitsErr == nil && len(m.habits) == 0 && m.seed {
		m.habits = SampleHabits(m.clock.Now())
		seeded = true
	}
	snapshot := m.snapshot()
	m.mu.Unlock()

	if habitsErr == nil && profileErr == nil {
		m.clearErr()
	}
	if seeded {
		logger.Info("Seeded demonstration habits", "count", len(snapshot))
		m.persist(ctx, snapshot)
	}

	if habitsErr != nil {
		m.recordErr("Failed to load habits", habitsErr)
	}
	if profileErr != nil {
		m.recordErr("Failed to load profile", profileErr)
	}

	m.reschedule(snapshot)
	logger.Debug("Habit manager initialized", "habits", len(snapshot))
}

// syncer replaces the whole reminder set in one step.
type syncer interface {
	Sync(habits []models.Habit)
}

func (m *Manager) reschedule(snapshot []models.Habit) {
	if s, ok := m.sched.(syncer); ok {
		s.Sync(snapshot)
		return
	}
	m.sched.CancelAll()
	for _, h := range snapshot {
		m.sched.ScheduleReminders(h)
	}
}

// AddHabit creates a habit from an already validated draft.
func (m *Manager) AddHabit(ctx context.Context, d models.HabitDraft) models.Habit {
	h := models.NewHabit(d.Name, d.Icon, d.Color, d.Target, m.clock.Now())
	h.Apply(d)

	m.mu.Lock()
	m.habits = append(m.habits, h)
	snapshot := m.snapshot()
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	m.sched.ScheduleReminders(h.Clone())
	logger.Info("Habit added", "id", h.ID, "name", h.Name)
	return h.Clone()
}

// UpdateHabit replaces the editable fields of a habit. Unknown ids are ignored
// and reported through the return value.
func (m *Manager) UpdateHabit(ctx context.Context, id string, d models.HabitDraft) bool {
	m.mu.Lock()
	i := m.index(id)
	if i < 0 {
		m.mu.Unlock()
		logger.Debug("Update skipped, habit not found", "id", id)
		return false
	}
	m.habits[i].Apply(d)
	updated := m.habits[i].Clone()
	snapshot := m.snapshot()
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	m.sched.ScheduleReminders(updated)
	logger.Info("Habit updated", "id", id)
	return true
}

// ToggleHabit marks the habit done for today, or undoes today's completion.
// The streak counter moves by one in either direction and never goes below zero.
func (m *Manager) ToggleHabit(ctx context.Context, id string) ToggleResult {
	now := m.clock.Now()
	key := utils.DayKey(now)

	m.mu.Lock()
	i := m.index(id)
	if i < 0 {
		m.mu.Unlock()
		logger.Debug("Toggle skipped, habit not found", "id", id)
		return ToggleResult{}
	}

	h := &m.habits[i]
	if h.CompletedDates == nil {
		h.CompletedDates = models.DaySet{}
	}
	res := ToggleResult{Found: true}
	if h.CompletedDates.Remove(key) {
		if h.Streak > 0 {
			h.Streak--
		}
	} else {
		h.CompletedDates.Add(key)
		h.Streak++
		res.Completed = true
		res.AllGoalsCompleted = stats.AllDailyGoalsMet(m.habits, now)
	}
	res.Streak = h.Streak
	snapshot := m.snapshot()
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	if res.AllGoalsCompleted {
		m.publish(EventDailyGoalsCompleted)
	}
	return res
}

// DeleteHabit cancels the habit's reminders and removes it. Unknown ids are ignored.
func (m *Manager) DeleteHabit(ctx context.Context, id string) bool {
	m.mu.Lock()
	i := m.index(id)
	if i < 0 {
		m.mu.Unlock()
		return false
	}
	m.habits = append(m.habits[:i], m.habits[i+1:]...)
	snapshot := m.snapshot()
	m.mu.Unlock()

	m.sched.CancelReminders(id)
	m.persist(ctx, snapshot)
	logger.Info("Habit deleted", "id", id)
	return true
}

// UpdateProfile replaces the profile wholesale.
func (m *Manager) UpdateProfile(ctx context.Context, p models.UserProfile) {
	m.mu.Lock()
	m.profile = p
	m.mu.Unlock()

	if err := m.repo.SaveProfile(ctx, p); err != nil {
		m.recordErr("Failed to save profile", err)
		return
	}
	m.clearErr()
}

// Subscribe registers fn for domain events. fn runs on the goroutine that
// caused the event, after the manager's lock is released.
func (m *Manager) Subscribe(fn func(Event)) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

func (m *Manager) publish(e Event) {
	m.subMu.Lock()
	subs := append([]func(Event){}, m.subscribers...)
	m.subMu.Unlock()

	logger.Debug("Publishing event", "event", e)
	for _, fn := range subs {
		fn(e)
	}
}

// LastError returns the swallowed error from the most recent load or save. A
// later successful save clears it.
func (m *Manager) LastError() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.lastErr
}

func (m *Manager) recordErr(msg string, err error) {
	logger.Warn(msg, "error", err)
	m.errMu.Lock()
	m.lastErr = err
	m.errMu.Unlock()
}

func (m *Manager) clearErr() {
	m.errMu.Lock()
	m.lastErr = nil
	m.errMu.Unlock()
}

func (m *Manager) persist(ctx context.Context, snapshot []models.Habit) {
	if err := m.repo.SaveHabits(ctx, snapshot); err != nil {
		m.recordErr("Failed to save habits", err)
		return
	}
	m.clearErr()
}

// snapshot deep-copies the collection. Callers hold m.mu.
func (m *Manager) snapshot() []models.Habit {
	out := make([]models.Habit, len(m.habits))
	for i := range m.habits {
		out[i] = m.habits[i].Clone()
	}
	return out
}

func (m *Manager) index(id string) int {
	for i := range m.habits {
		if m.habits[i].ID == id {
			return i
		}
	}
	return -1
}

type noopScheduler struct{}

func (noopScheduler) ScheduleReminders(models.Habit) {}
func (noopScheduler) CancelReminders(string)         {}
func (noopScheduler) CancelAll()                     {}

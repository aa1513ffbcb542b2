// Package reminders keeps the pending reminder notifications for every habit
// and delivers them when their time of day comes around.
package reminders

import (
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/utils"
)

// Scheduler is told whenever a habit's reminder set changes.
// Calls are fire-and-forget.
type Scheduler interface {
	ScheduleReminders(habit models.Habit)
	CancelReminders(habitID string)
	CancelAll()
}

// Request is one daily repeating notification.
type Request struct {
	ID      string
	HabitID string
	Title   string
	Body    string
	Hour    int
	Minute  int
}

// Clock formats the request time as HH:MM.
func (r Request) Clock() string {
	return utils.TimeOfDay(r.Hour, r.Minute, time.UTC).Format(constants.TimeFormat)
}

// Registry is an in-process Scheduler. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	requests map[string]Request
}

func NewRegistry() *Registry {
	return &Registry{requests: make(map[string]Request)}
}

// ScheduleReminders replaces every request for the habit with its enabled reminders.
func (r *Registry) ScheduleReminders(habit models.Habit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancel(habit.ID)
	addRequests(r.requests, habit)
}

func addRequests(into map[string]Request, habit models.Habit) {
	for _, rem := range habit.EnabledReminders() {
		hour, minute := rem.HourMinute()
		req := Request{
			ID:      rem.Identifier(habit.ID),
			HabitID: habit.ID,
			Title:   constants.ReminderTitle,
			Body:    rem.Body(habit.Name),
			Hour:    hour,
			Minute:  minute,
		}
		into[req.ID] = req
	}
}

func (r *Registry) CancelReminders(habitID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel(habitID)
}

func (r *Registry) cancel(habitID string) {
	for id, req := range r.requests {
		if req.HabitID == habitID {
			delete(r.requests, id)
		}
	}
}

func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = make(map[string]Request)
}

// Sync replaces the registry with the requests of a full habit snapshot.
// Readers see either the old set or the new one, never a partial rebuild.
func (r *Registry) Sync(habits []models.Habit) {
	next := make(map[string]Request)
	for _, h := range habits {
		addRequests(next, h)
	}

	r.mu.Lock()
	r.requests = next
	r.mu.Unlock()
}

// Pending returns every request ordered by time of day.
func (r *Registry) Pending() []Request {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Request, 0, len(r.requests))
	for _, req := range r.requests {
		out = append(out, req)
	}
	sortRequests(out)
	return out
}

// PendingFor returns the requests registered for one habit.
func (r *Registry) PendingFor(habitID string) []Request {
	var out []Request
	for _, req := range r.Pending() {
		if req.HabitID == habitID {
			out = append(out, req)
		}
	}
	return out
}

// Due returns the requests whose time of day first occurred after since and
// no later than now, in now's location.
func (r *Registry) Due(now, since time.Time) []Request {
	if !now.After(since) {
		return nil
	}
	since = since.In(now.Location())

	var due []Request
	for _, req := range r.Pending() {
		if !utils.NextOccurrence(since, req.Hour, req.Minute).After(now) {
			due = append(due, req)
		}
	}
	return due
}

func sortRequests(reqs []Request) {
	sort.Slice(reqs, func(i, j int) bool {
		a, b := reqs[i], reqs[j]
		if a.Hour != b.Hour {
			return a.Hour < b.Hour
		}
		if a.Minute != b.Minute {
			return a.Minute < b.Minute
		}
		return a.ID < b.ID
	})
}

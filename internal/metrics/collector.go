// Package metrics exposes habit aggregates to Prometheus and serves a small
// JSON status API next to the /metrics endpoint.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/julianstephens/habits/internal/habits"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/stats"
)

// Source is the habit state the collector and server read from. *habits.Manager implements it.
type Source interface {
	Habits() []models.Habit
	Summary() stats.Summary
	Now() time.Time
	ToggleHabit(ctx context.Context, id string) habits.ToggleResult
}

type Collector struct {
	registry *prometheus.Registry

	toggles        *prometheus.CounterVec
	goalsCompleted prometheus.Counter
	remindersSent  *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewCollector registers every habits metric on a private registry.
func NewCollector(src Source) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		toggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habit_toggles_total",
				Help: "Total number of habit toggles",
			},
			[]string{"direction"},
		),
		goalsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "habits_daily_goals_completed_total",
			Help: "Times every habit due that day was completed",
		}),
		remindersSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habit_reminders_sent_total",
				Help: "Reminder delivery attempts",
			},
			[]string{"result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habits_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "habits_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}

	gauge := func(name, help string, value func(stats.Summary) float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return value(src.Summary())
		})
	}

	c.registry.MustRegister(
		c.toggles,
		c.goalsCompleted,
		c.remindersSent,
		c.httpRequests,
		c.httpDuration,
		gauge("habits_total", "Number of tracked habits",
			func(s stats.Summary) float64 { return float64(s.TotalHabits) }),
		gauge("habits_completed_today", "Habits completed today",
			func(s stats.Summary) float64 { return float64(s.CompletedToday) }),
		gauge("habits_due_today", "Habits scheduled for today",
			func(s stats.Summary) float64 { return float64(s.DueToday) }),
		gauge("habits_longest_streak", "Longest current streak across habits",
			func(s stats.Summary) float64 { return float64(s.LongestStreak) }),
		gauge("habits_average_completion_rate", "Mean weekly completion rate",
			func(s stats.Summary) float64 { return s.AverageCompletionRate }),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveToggle counts a toggle by direction.
func (c *Collector) ObserveToggle(res habits.ToggleResult) {
	if !res.Found {
		return
	}
	direction := "undone"
	if res.Completed {
		direction = "done"
	}
	c.toggles.WithLabelValues(direction).Inc()
}

// ObserveEvent is meant to be passed to habits.Manager.Subscribe.
func (c *Collector) ObserveEvent(e habits.Event) {
	if e == habits.EventDailyGoalsCompleted {
		c.goalsCompleted.Inc()
	}
}

// ObserveReminder counts a delivery attempt. It matches reminders.WithResultHook
// once the request argument is dropped.
func (c *Collector) ObserveReminder(err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	c.remindersSent.WithLabelValues(result).Inc()
}

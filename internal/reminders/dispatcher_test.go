package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/utils"
)

type fakeSender struct {
	mu     sync.Mutex
	bodies []string
	fail   bool
}

func (f *fakeSender) Send(ctx context.Context, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("tray not running")
	}
	f.bodies = append(f.bodies, body)
	return nil
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bodies...)
}

func TestDispatcher_Tick(t *testing.T) {
	r := NewRegistry()
	r.ScheduleReminders(habitWithReminders("Exercitar", models.NewReminder(7, 0, ""), models.NewReminder(18, 0, "")))

	sender := &fakeSender{}
	var results []error
	d := NewDispatcher(r, sender, WithResultHook(func(_ Request, err error) { results = append(results, err) }))

	since := time.Date(2025, 7, 11, 6, 59, 0, 0, time.UTC)
	n := d.Tick(context.Background(), since, since.Add(2*time.Minute))

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"Hora de Exercitar!"}, sender.sent())
	require.Len(t, results, 1)
	assert.NoError(t, results[0])
}

func TestDispatcher_TickFailureIsNotFatal(t *testing.T) {
	r := NewRegistry()
	r.ScheduleReminders(habitWithReminders("A", models.NewReminder(7, 0, ""), models.NewReminder(7, 0, "")))

	var failures int
	d := NewDispatcher(r, &fakeSender{fail: true}, WithResultHook(func(_ Request, err error) {
		if err != nil {
			failures++
		}
	}))

	since := time.Date(2025, 7, 11, 6, 59, 0, 0, time.UTC)
	assert.Equal(t, 0, d.Tick(context.Background(), since, since.Add(time.Minute)))
	assert.Equal(t, 2, failures)
}

func TestDispatcher_RateLimitStopsOnCancel(t *testing.T) {
	r := NewRegistry()
	r.ScheduleReminders(habitWithReminders("A",
		models.NewReminder(7, 0, "1"), models.NewReminder(7, 0, "2"), models.NewReminder(7, 0, "3")))

	sender := &fakeSender{}
	d := NewDispatcher(r, sender, WithRateLimit(0.001, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	since := time.Date(2025, 7, 11, 6, 59, 0, 0, time.UTC)

	assert.Equal(t, 1, d.Tick(ctx, since, since.Add(time.Minute)))
	assert.Len(t, sender.sent(), 1)
}

type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(time.Minute)
	return t
}

var _ utils.Clock = (*steppingClock)(nil)

func TestDispatcher_Run(t *testing.T) {
	r := NewRegistry()
	r.ScheduleReminders(habitWithReminders("Ler", models.NewReminder(21, 0, "")))

	sender := &fakeSender{}
	clock := &steppingClock{now: time.Date(2025, 7, 11, 20, 58, 30, 0, time.UTC)}
	d := NewDispatcher(r, sender, WithClock(clock), WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sender.sent()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
	assert.Equal(t, []string{"Hora de Ler!"}, sender.sent())
}

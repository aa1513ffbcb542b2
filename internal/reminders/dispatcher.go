package reminders

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/logger"
	"github.com/julianstephens/habits/internal/utils"
)

var dlog = logger.For("reminders")

// Sender delivers a single notification.
type Sender interface {
	Send(ctx context.Context, title, body string) error
}

// Dispatcher polls a Registry and hands due requests to a Sender.
// Failed sends are logged and not retried.
type Dispatcher struct {
	registry *Registry
	sender   Sender
	clock    utils.Clock
	interval time.Duration
	limiter  *rate.Limiter
	onResult func(Request, error)
}

type Option func(*Dispatcher)

func WithClock(c utils.Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

func WithInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// WithRateLimit caps deliveries at perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(d *Dispatcher) { d.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithResultHook is called after every send attempt.
func WithResultHook(fn func(Request, error)) Option {
	return func(d *Dispatcher) { d.onResult = fn }
}

func NewDispatcher(registry *Registry, sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		sender:   sender,
		clock:    utils.SystemClock{},
		interval: constants.DefaultRemindInterval,
		limiter:  rate.NewLimiter(rate.Limit(constants.DefaultRemindRateLimit), constants.DefaultRemindBurst),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run checks for due reminders every interval until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	last := d.clock.Now()
	dlog.Info("Reminder dispatcher started", "interval", d.interval, "pending", len(d.registry.Pending()))

	for {
		select {
		case <-ctx.Done():
			dlog.Info("Reminder dispatcher stopped")
			return nil
		case <-ticker.C:
			now := d.clock.Now()
			d.Tick(ctx, last, now)
			last = now
		}
	}
}

// Tick sends every request due in (since, now] and returns how many were delivered.
func (d *Dispatcher) Tick(ctx context.Context, since, now time.Time) int {
	sent := 0
	for _, req := range d.registry.Due(now, since) {
		if err := d.limiter.Wait(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				dlog.Warn("Reminder rate limiter aborted", "error", err)
			}
			return sent
		}

		err := d.sender.Send(ctx, req.Title, req.Body)
		if err != nil {
			dlog.Warn("Failed to deliver reminder", "id", req.ID, "error", err)
		} else {
			dlog.Debug("Reminder delivered", "id", req.ID, "at", req.Clock())
			sent++
		}
		if d.onResult != nil {
			d.onResult(req, err)
		}
	}
	return sent
}

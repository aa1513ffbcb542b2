package system

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/habits/internal/cli"
	"github.com/julianstephens/habits/internal/constants"
	core "github.com/julianstephens/habits/internal/habits"
	"github.com/julianstephens/habits/internal/keyring"
	"github.com/julianstephens/habits/internal/logger"
	"github.com/julianstephens/habits/internal/metrics"
	"github.com/julianstephens/habits/internal/notifier"
	"github.com/julianstephens/habits/internal/reminders"
)

// RemindCmd runs the reminder daemon. Reminders go to the tray app, or to an
// AMQP queue when one is configured.
type RemindCmd struct {
	Once        bool          `help:"Send reminders due within the last interval and exit."`
	Interval    time.Duration `help:"How often to check for due reminders." default:"${remind_interval}"`
	Queue       string        `help:"AMQP URL to publish reminders to instead of the tray app." env:"HABITS_NOTIFY_QUEUE_URL"`
	MetricsAddr string        `help:"Listen address for /metrics and the status API. Empty disables it." default:"${metrics_addr}"`
	Reload      time.Duration `help:"How often to reload habits from storage." default:"1m"`
}

// reloader is implemented by stores that cache their contents in memory.
type reloader interface {
	Reload(ctx context.Context) error
}

// profileGate drops reminders while the profile has notifications turned off.
type profileGate struct {
	mgr  *core.Manager
	next reminders.Sender
}

func (g profileGate) Send(ctx context.Context, title, body string) error {
	if !g.mgr.Profile().Notifications {
		logger.Debug("Notifications disabled, reminder dropped", "title", title)
		return nil
	}
	return g.next.Send(ctx, title, body)
}

func (c *RemindCmd) sender() (reminders.Sender, func(), error) {
	url := c.Queue
	if url == "" {
		var err error
		if url, err = keyring.Resolve("", keyring.AccountNotifyQueue); err != nil {
			logger.Debug("Keyring lookup failed", "error", err)
		}
	}
	if url == "" {
		return notifier.New(), func() {}, nil
	}

	q, err := notifier.DialQueue(url, constants.DefaultNotifyQueueName)
	if err != nil {
		return nil, nil, err
	}
	return q, func() {
		if err := q.Close(); err != nil {
			logger.Warn("Failed to close notification queue", "error", err)
		}
	}, nil
}

func (c *RemindCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	mgr := ctx.Manager(bg)

	next, closeSender, err := c.sender()
	if err != nil {
		return err
	}
	defer closeSender()

	collector := metrics.NewCollector(mgr)
	mgr.Subscribe(collector.ObserveEvent)

	dispatcher := reminders.NewDispatcher(ctx.Registry(), profileGate{mgr: mgr, next: next},
		reminders.WithClock(ctx.Clock),
		reminders.WithInterval(c.Interval),
		reminders.WithRateLimit(constants.DefaultRemindRateLimit, constants.DefaultRemindBurst),
		reminders.WithResultHook(func(req reminders.Request, err error) {
			collector.ObserveReminder(err)
			if err == nil {
				ctx.Printf("%s  %s: %s\n", req.Clock(), req.Title, req.Body)
			}
		}),
	)

	if c.Once {
		now := ctx.Clock.Now()
		n := dispatcher.Tick(bg, now.Add(-c.Interval), now)
		ctx.Printf("%d reminders sent.\n", n)
		return nil
	}

	runCtx, stop := signal.NotifyContext(bg, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx.Printf("Watching %d reminders. Press Ctrl+C to stop.\n", len(ctx.Registry().Pending()))

	errCh := make(chan error, 2)
	if c.MetricsAddr != "" {
		srv := metrics.NewServer(c.MetricsAddr, mgr, collector, metrics.WithAccessLog(os.Stderr))
		go func() { errCh <- srv.ListenAndServe(runCtx) }()
	}
	if c.Reload > 0 {
		go c.reloadLoop(runCtx, ctx, mgr)
	}
	go func() { errCh <- dispatcher.Run(runCtx) }()

	select {
	case err := <-errCh:
		stop()
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-runCtx.Done():
	}
	ctx.Println("Stopped.")
	return nil
}

func (c *RemindCmd) reloadLoop(runCtx context.Context, ctx *cli.Context, mgr *core.Manager) {
	ticker := time.NewTicker(c.Reload)
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			return
		case <-ticker.C:
			if r, ok := ctx.Store.(reloader); ok {
				if err := r.Reload(runCtx); err != nil {
					logger.Warn("Failed to reload storage", "error", err)
					continue
				}
			}
			mgr.Initialize(runCtx)
			logger.Debug("Reloaded habits", "reminders", len(ctx.Registry().Pending()))
		}
	}
}

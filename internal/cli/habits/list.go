package habits

import (
	"context"
	"strings"

	"github.com/julianstephens/habits/internal/cli"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/stats"
	"github.com/julianstephens/habits/internal/utils"
)

type ListCmd struct {
	Due bool `help:"Only show habits scheduled for today."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Manager(context.Background())
	now := mgr.Now()

	habits := mgr.Habits()
	if len(habits) == 0 {
		ctx.Println("No habits yet. Add one with 'habits add <name>'.")
		return nil
	}

	for _, h := range habits {
		if c.Due && !h.ShouldBeDoneToday(now) {
			continue
		}
		ctx.Printf("  %s %s %-20s streak %-3d %4s  %s  [%s]\n",
			cli.StatusMark(h.CompletedOn(now)),
			models.Glyph(h.Icon),
			h.Name,
			h.Streak,
			cli.FormatPercent(h.CompletionRate(now)),
			cli.FormatDays(h),
			shortID(h.ID),
		)
	}
	return nil
}

type ShowCmd struct {
	Ref string `arg:"" help:"Habit id, id prefix or name."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Manager(context.Background())
	now := mgr.Now()

	h, err := mgr.Find(c.Ref)
	if err != nil {
		return err
	}

	ctx.Printf("%s %s\n", models.Glyph(h.Icon), h.Name)
	ctx.Printf("  ID:          %s\n", h.ID)
	ctx.Printf("  Color:       %s\n", h.Color.Hex())
	ctx.Printf("  Schedule:    %s\n", cli.FormatDays(h))
	ctx.Printf("  Target:      %d days/week\n", h.Target)
	ctx.Printf("  Streak:      %d\n", h.Streak)
	if derived := stats.DerivedStreak(h, now); derived != h.Streak {
		ctx.Printf("               (%d from the completion record)\n", derived)
	}
	ctx.Printf("  This week:   %s of target\n", cli.FormatPercent(h.CompletionRate(now)))
	ctx.Printf("  Completions: %d over %d days\n", h.TotalCompletions(), h.DaysActive(now))
	ctx.Printf("  Created:     %s\n", utils.DayKey(h.CreatedDate))

	var week strings.Builder
	for i, done := range stats.WeeklyGrid(h, now) {
		if i > 0 {
			week.WriteString(" ")
		}
		week.WriteString(cli.StatusMark(done))
	}
	ctx.Printf("  Last 7 days: %s\n", week.String())

	if len(h.Reminders) == 0 {
		ctx.Println("  Reminders:   none")
		return nil
	}
	ctx.Println("  Reminders:")
	for _, r := range h.Reminders {
		ctx.Printf("    %s  %s\n", r.Clock(), r.Body(h.Name))
	}
	return nil
}

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Manager(context.Background())
	now := mgr.Now()
	summary := mgr.Summary()

	ctx.Printf("%s, %s\n", weekdayName(now), utils.DayKey(now))
	if summary.DueToday == 0 {
		ctx.Println("Nothing scheduled for today.")
		return nil
	}

	for _, h := range mgr.Habits() {
		if !h.ShouldBeDoneToday(now) {
			continue
		}
		ctx.Printf("  %s %s %s (streak %d)\n", cli.StatusMark(h.CompletedOn(now)), models.Glyph(h.Icon), h.Name, h.Streak)
	}
	ctx.Printf("\n%d/%d done (%d%%)\n", summary.CompletedToday, summary.DueToday, summary.TodayPercent)

	if summary.AllDailyGoalsMet {
		PrintCelebration(ctx)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

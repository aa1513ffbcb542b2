package habits

import (
	"context"
	"strings"

	"github.com/julianstephens/habits/internal/cli"
)

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Manager(context.Background())
	s := mgr.Summary()
	profile := mgr.Profile()

	ctx.Println("Statistics")
	ctx.Printf("  Habits:              %d\n", s.TotalHabits)
	ctx.Printf("  Completed today:     %d/%d\n", s.CompletedToday, s.DueToday)
	ctx.Printf("  Total completions:   %d\n", s.TotalCompletions)
	ctx.Printf("  Average completion:  %s\n", cli.FormatPercent(s.AverageCompletionRate))
	ctx.Printf("  Longest streak:      %d\n", s.LongestStreak)
	ctx.Printf("  Daily goal:          %d habits\n", profile.DailyGoal)

	ctx.Println()
	ctx.Println("Last 7 days")
	for _, day := range mgr.WeeklyHistogram() {
		ctx.Printf("  %-4s %s %d\n", day.Label, strings.Repeat("█", day.Completed), day.Completed)
	}
	return nil
}

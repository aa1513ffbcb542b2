package habits

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julianstephens/habits/internal/cli"
	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/utils"
)

// LogCmd prints an ASCII completion history, oldest day on the left.
// ✓ done, · scheduled but missed, blank not scheduled.
type LogCmd struct {
	Days int    `short:"n" help:"Number of days to show." default:"14"`
	Ref  string `arg:"" optional:"" help:"Only show this habit."`
}

func (c *LogCmd) Validate() error {
	if c.Days < 1 || c.Days > 90 {
		return fmt.Errorf("days must be between 1 and 90")
	}
	return nil
}

func (c *LogCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Manager(context.Background())
	now := mgr.Now()

	habits := mgr.Habits()
	if c.Ref != "" {
		h, err := mgr.Find(c.Ref)
		if err != nil {
			return err
		}
		habits = []models.Habit{h}
	}
	if len(habits) == 0 {
		ctx.Println("No habits yet.")
		return nil
	}

	days := utils.LastNDays(now, c.Days)
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}

	width := 0
	for _, h := range habits {
		if n := utf8.RuneCountInString(h.Name); n > width {
			width = n
		}
	}

	var header strings.Builder
	for _, key := range days {
		t, err := utils.ParseDayKey(key, now.Location())
		if err != nil {
			return err
		}
		header.WriteString(string([]rune(constants.WeekdayShortNames[utils.Weekday(t)-1])[:1]))
	}
	ctx.Printf("%s  %s\n", pad("", width), header.String())

	for _, h := range habits {
		var row strings.Builder
		for _, key := range days {
			t, _ := utils.ParseDayKey(key, now.Location())
			switch {
			case h.CompletedDates.Has(key):
				row.WriteString("✓")
			case h.ShouldBeDoneOn(t):
				row.WriteString("·")
			default:
				row.WriteString(" ")
			}
		}
		ctx.Printf("%s  %s\n", pad(h.Name, width), row.String())
	}
	return nil
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func weekdayName(t time.Time) string {
	return constants.WeekdayNames[utils.Weekday(t)-1]
}

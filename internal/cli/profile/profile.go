package profile

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/julianstephens/habits/internal/cli"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/utils"
)

type ProfileCmd struct {
	Show ShowCmd `cmd:"" help:"Show the user profile." default:"1"`
	Set  SetCmd  `cmd:"" help:"Update profile fields."`
}

type ShowCmd struct{}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	p := ctx.Manager(context.Background()).Profile()

	ctx.Printf("Name:          %s\n", p.Name)
	ctx.Printf("Member since:  %s\n", utils.DayKey(p.JoinDate))
	ctx.Printf("Daily goal:    %d\n", p.DailyGoal)
	ctx.Printf("Weekly goal:   %d\n", p.WeeklyGoal)
	ctx.Printf("Notifications: %s\n", onOff(p.Notifications))
	ctx.Printf("Theme:         %s\n", p.Theme)
	return nil
}

// SetCmd changes only the fields whose flags are given.
type SetCmd struct {
	Name          string `help:"Display name."`
	DailyGoal     int    `help:"Habits to complete per day."`
	WeeklyGoal    int    `help:"Completions to reach per week."`
	Notifications string `help:"Enable reminders: on or off."`
	Theme         string `help:"Theme: system, light or dark."`
}

func (c *SetCmd) Validate() error {
	if c.DailyGoal < 0 || c.WeeklyGoal < 0 {
		return fmt.Errorf("goals cannot be negative")
	}
	if c.Theme != "" && !slices.Contains(models.Themes, c.Theme) {
		return fmt.Errorf("invalid theme %q (choose one of: %s)", c.Theme, strings.Join(models.Themes, ", "))
	}
	if c.Notifications != "" {
		if _, err := parseOnOff(c.Notifications); err != nil {
			return err
		}
	}
	return nil
}

func (c *SetCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	mgr := ctx.Manager(bg)
	p := mgr.Profile()

	changed := false
	if name := strings.TrimSpace(c.Name); name != "" {
		p.Name = name
		changed = true
	}
	if c.DailyGoal > 0 {
		p.DailyGoal = c.DailyGoal
		changed = true
	}
	if c.WeeklyGoal > 0 {
		p.WeeklyGoal = c.WeeklyGoal
		changed = true
	}
	if c.Notifications != "" {
		p.Notifications, _ = parseOnOff(c.Notifications)
		changed = true
	}
	if c.Theme != "" {
		p.Theme = c.Theme
		changed = true
	}

	if !changed {
		ctx.Println("Nothing to update.")
		return nil
	}

	mgr.UpdateProfile(bg, p)
	if err := ctx.Persisted(); err != nil {
		return err
	}
	ctx.Println("Profile updated.")
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid notifications value %q (use on or off)", s)
	}
	return b, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

package models

import (
	"time"

	"github.com/julianstephens/habits/internal/constants"
)

// UserProfile holds the single user's preferences.
type UserProfile struct {
	Name          string    `json:"name"`
	JoinDate      time.Time `json:"joinDate"`
	DailyGoal     int       `json:"dailyGoal"`
	WeeklyGoal    int       `json:"weeklyGoal"`
	Notifications bool      `json:"notifications"`
	Theme         string    `json:"theme"`
}

// DefaultProfile returns the profile used before the user customizes anything.
func DefaultProfile(now time.Time) UserProfile {
	return UserProfile{
		Name:          constants.DefaultProfileName,
		JoinDate:      now,
		DailyGoal:     constants.DefaultDailyGoal,
		WeeklyGoal:    constants.DefaultWeeklyGoal,
		Notifications: constants.DefaultNotify,
		Theme:         constants.DefaultProfileTheme,
	}
}

// Themes accepted for UserProfile.Theme.
var Themes = []string{"system", "light", "dark"}

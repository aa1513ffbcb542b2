package constants

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// SessionState is the screen the TUI is showing.
type SessionState int

// ConfirmationMsg asks the TUI to confirm before running Action.
type ConfirmationMsg struct {
	Message string
	Action  func() tea.Cmd
}

const (
	AppName            = "habits"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/habits/habits.db"
	Version            = "v0.1.0"

	// DateFormat is the day key format used for completion records (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the reminder time-of-day format (HH:MM)
	TimeFormat = "15:04"

	// Storage keys for the persisted blobs
	HabitsKey  = "habits"
	ProfileKey = "userProfile"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habits-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "habits-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.habits"
	NotifierSecretHeader   = "X-Habits-Secret"
	TrayExecutablePrefix   = "habits-tray"

	// Reminder constants
	ReminderTitle          = "Lembrete de Hábito"
	ReminderMessageFormat  = "Hora de %s!"
	ReminderIDPrefix       = "habit-"
	DefaultRemindInterval  = 30 * time.Second
	DefaultRemindRateLimit = 1.0 // notifications per second
	DefaultRemindBurst     = 5
	DefaultNotifyQueueName = "habits.reminders"

	// Celebration copy shown when every habit due today is done
	CelebrationTitle   = "Parabéns!"
	CelebrationMessage = "Você completou todos os seus objetivos de hoje!"

	// Target bounds (days per week)
	MinTarget = 1
	MaxTarget = 7
)

// TUI screens.
const (
	StateHabits SessionState = iota
	StateStats
	StateAddHabit
	StateConfirmDelete
	StateCelebration
)

// Profile defaults
const (
	DefaultProfileName  = "Usuário"
	DefaultDailyGoal    = 3
	DefaultWeeklyGoal   = 21
	DefaultNotify       = true
	DefaultProfileTheme = "system"
	DefaultTimezone     = "Local"
	DefaultMetricsAddr  = "127.0.0.1:9464"
)

// WeekdayNames holds the display name for each weekday, indexed from Sunday.
var WeekdayNames = [7]string{"Domingo", "Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado"}

// WeekdayShortNames is used for chart labels.
var WeekdayShortNames = [7]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

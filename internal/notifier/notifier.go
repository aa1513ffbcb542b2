// Package notifier delivers reminder and celebration notifications, either to
// the habits tray app over a local webhook or to an AMQP queue.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/logger"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess

	nlog = logger.For("notifier")

	ErrTrayNotRunning = errors.New("habits-tray is not running")
)

// Notification is the payload both notifiers deliver.
type Notification struct {
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	DurationMs uint32    `json:"duration_ms"`
	SentAt     time.Time `json:"sent_at,omitempty"`
}

// Tray is a running tray app as advertised by its lockfile.
type Tray struct {
	Port   int
	PID    int
	Secret string
}

func (t Tray) endpoint() string {
	u := url.URL{Scheme: "http", Host: net.JoinHostPort("127.0.0.1", strconv.Itoa(t.Port)), Path: "/"}
	return u.String()
}

// Notifier posts notifications to the tray app found through its lockfile.
type Notifier struct {
	client *http.Client
}

func New() *Notifier {
	return &Notifier{client: &http.Client{Timeout: 5 * time.Second}}
}

// Send implements reminders.Sender.
func (n *Notifier) Send(ctx context.Context, title, body string) error {
	return n.Notify(ctx, Notification{Title: title, Text: body, DurationMs: constants.NotificationDurationMs})
}

// Notify locates the tray app and posts note, retrying transport failures
// and 5xx responses.
func (n *Notifier) Notify(ctx context.Context, note Notification) error {
	dir, err := lockDir()
	if err != nil {
		return err
	}
	tray, err := readLockfile(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return err
	}
	if err := tray.verify(); err != nil {
		return err
	}

	var sendErr error
	for attempt := 1; ; attempt++ {
		sendErr = n.post(ctx, tray, note)
		if sendErr == nil || !retryable(sendErr) || attempt == constants.NotifyMaxRetries {
			return sendErr
		}
		nlog.Debug("Retrying tray notification", "attempt", attempt, "error", sendErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(constants.NotifyRetryDelay):
		}
	}
}

// lockDir is where the tray app writes its lockfile, unless its
// settings.json names another lockfile_dir.
func lockDir() (string, error) {
	base, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	dir := filepath.Join(base, constants.TrayAppIdentifier)

	raw, err := os.ReadFile(filepath.Join(dir, "settings.json"))
	if err != nil {
		return dir, nil
	}
	var settings struct {
		Settings struct {
			LockfileDir string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if json.Unmarshal(raw, &settings) == nil && settings.Settings.LockfileDir != "" {
		return settings.Settings.LockfileDir, nil
	}
	return dir, nil
}

// readLockfile parses "port|pid|secret". A missing file means no tray app.
func readLockfile(path string) (Tray, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tray{}, ErrTrayNotRunning
	}

	fields := strings.Split(strings.TrimSpace(string(raw)), "|")
	if len(fields) != 3 {
		return Tray{}, fmt.Errorf("lockfile %s is malformed: want port|pid|secret", path)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	var tray Tray
	if tray.Port, err = strconv.Atoi(fields[0]); err != nil || tray.Port < 1 || tray.Port > 65535 {
		return Tray{}, fmt.Errorf("lockfile port %q is not a valid port", fields[0])
	}
	if tray.PID, err = strconv.Atoi(fields[1]); err != nil || tray.PID < 1 {
		return Tray{}, fmt.Errorf("lockfile pid %q is not a process ID", fields[1])
	}
	if tray.Secret = fields[2]; tray.Secret == "" {
		return Tray{}, errors.New("lockfile secret is empty")
	}
	return tray, nil
}

// verify checks the lockfile pid is alive and runs the tray app.
func (t Tray) verify() error {
	proc, err := findProcessFunc(t.PID)
	if err != nil || proc == nil {
		return ErrTrayNotRunning
	}
	if exe := proc.Executable(); !strings.HasPrefix(exe, constants.TrayExecutablePrefix) {
		return fmt.Errorf("pid %d belongs to %s, not %s", t.PID, exe, constants.TrayExecutablePrefix)
	}
	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("tray answered %d: %s", e.code, e.body)
}

// retryable reports whether a send failed on transport or with a 5xx response.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (n *Notifier) post(ctx context.Context, tray Tray, note Notification) error {
	payload, err := json.Marshal(note)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tray.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.NotifierSecretHeader, tray.Secret)

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return &statusError{code: res.StatusCode, body: strings.TrimSpace(string(body))}
}

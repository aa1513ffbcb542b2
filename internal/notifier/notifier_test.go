package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/habits/internal/constants"
)

type fakeProcess struct {
	pid int
	exe string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.exe }

func stubProcesses(t *testing.T, exe string) {
	t.Helper()
	prev := findProcessFunc
	t.Cleanup(func() { findProcessFunc = prev })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if exe == "" {
			return nil, nil
		}
		return fakeProcess{pid: pid, exe: exe}, nil
	}
}

func stubConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := userConfigDirFunc
	t.Cleanup(func() { userConfigDirFunc = prev })
	userConfigDirFunc = func() (string, error) { return dir, nil }
	return dir
}

func TestLockDir(t *testing.T) {
	base := stubConfigDir(t)
	trayDir := filepath.Join(base, constants.TrayAppIdentifier)

	dir, err := lockDir()
	if err != nil || dir != trayDir {
		t.Fatalf("lockDir() = %q, %v; want %q", dir, err, trayDir)
	}

	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	write := func(content string) {
		if err := os.WriteFile(filepath.Join(trayDir, "settings.json"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	write(`{"settings": {"lockfile_dir": "/run/habits"}}`)
	if dir, _ := lockDir(); dir != "/run/habits" {
		t.Errorf("override ignored: %q", dir)
	}

	write(`{"settings": {"lockfile_dir": ""}}`)
	if dir, _ := lockDir(); dir != trayDir {
		t.Errorf("empty override should fall back, got %q", dir)
	}

	write(`not json`)
	if dir, _ := lockDir(); dir != trayDir {
		t.Errorf("broken settings should fall back, got %q", dir)
	}
}

func TestReadLockfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), constants.NotifierLockfileName)

	if _, err := readLockfile(path); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("missing lockfile: got %v, want ErrTrayNotRunning", err)
	}

	bad := map[string]string{
		"two fields":    "8080|12345",
		"garbage":       "invalid",
		"empty secret":  "8080|12345| ",
		"empty port":    "|12345|s3cret",
		"port too high": "99999|12345|s3cret",
		"bad pid":       "8080|abc|s3cret",
	}
	for name, content := range bad {
		t.Run(name, func(t *testing.T) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := readLockfile(path); err == nil || errors.Is(err, ErrTrayNotRunning) {
				t.Errorf("readLockfile(%q) = %v, want a parse error", content, err)
			}
		})
	}

	if err := os.WriteFile(path, []byte(" 8080 | 4242 | s3cret \n"), 0600); err != nil {
		t.Fatal(err)
	}
	tray, err := readLockfile(path)
	if err != nil {
		t.Fatalf("readLockfile() failed: %v", err)
	}
	if tray != (Tray{Port: 8080, PID: 4242, Secret: "s3cret"}) {
		t.Errorf("tray = %+v", tray)
	}
	if got := tray.endpoint(); got != "http://127.0.0.1:8080/" {
		t.Errorf("endpoint = %q", got)
	}
}

func TestTrayVerify(t *testing.T) {
	tray := Tray{Port: 8080, PID: 4242, Secret: "s"}

	stubProcesses(t, "")
	if err := tray.verify(); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("dead pid: got %v", err)
	}

	stubProcesses(t, "firefox")
	if err := tray.verify(); err == nil || !strings.Contains(err.Error(), "firefox") {
		t.Errorf("foreign pid: got %v", err)
	}

	stubProcesses(t, "habits-tray")
	if err := tray.verify(); err != nil {
		t.Errorf("tray pid: got %v", err)
	}
}

// fakeTray answers like the tray app: 401 without the secret, 500 for
// notifications whose text is "fail".
func fakeTray(t *testing.T, hits *int32) Tray {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Header.Get(constants.NotifierSecretHeader) != "test-secret" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		var note Notification
		if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		if note.Text == "fail" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(u.Port())
	return Tray{Port: port, PID: os.Getpid(), Secret: "test-secret"}
}

func TestPost(t *testing.T) {
	var hits int32
	tray := fakeTray(t, &hits)
	n := New()
	ctx := context.Background()

	if err := n.post(ctx, tray, Notification{Text: "hello"}); err != nil {
		t.Errorf("post() failed: %v", err)
	}

	wrong := tray
	wrong.Secret = "nope"
	err := n.post(ctx, wrong, Notification{Text: "hello"})
	if err == nil || retryable(err) {
		t.Errorf("401 should fail without retry, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "Unauthorized") {
		t.Errorf("error should carry the response body: %v", err)
	}

	if err := n.post(ctx, tray, Notification{Text: "fail"}); err == nil || !retryable(err) {
		t.Errorf("500 should be retryable, got %v", err)
	}

	if retryable(context.Canceled) {
		t.Error("cancellation should not be retried")
	}
}

func TestNotifyRetriesServerErrors(t *testing.T) {
	var hits int32
	tray := fakeTray(t, &hits)
	stubProcesses(t, "habits-tray")
	base := stubConfigDir(t)

	dir := filepath.Join(base, constants.TrayAppIdentifier)
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	lock := fmt.Sprintf("%d|%d|%s", tray.Port, tray.PID, tray.Secret)
	if err := os.WriteFile(filepath.Join(dir, constants.NotifierLockfileName), []byte(lock), 0600); err != nil {
		t.Fatal(err)
	}

	n := New()
	if err := n.Send(context.Background(), constants.ReminderTitle, "Hora de Ler!"); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("hits = %d, want 1", got)
	}

	atomic.StoreInt32(&hits, 0)
	if err := n.Send(context.Background(), constants.ReminderTitle, "fail"); err == nil {
		t.Error("expected error after retries")
	}
	if got := atomic.LoadInt32(&hits); got != constants.NotifyMaxRetries {
		t.Errorf("hits = %d, want %d", got, constants.NotifyMaxRetries)
	}
}

func TestNotifyWithoutTray(t *testing.T) {
	stubConfigDir(t)
	if err := New().Send(context.Background(), "t", "b"); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("Send() = %v, want ErrTrayNotRunning", err)
	}
}

package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habits/internal/habits"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/storage"
	"github.com/julianstephens/habits/internal/utils"
)

var now = time.Date(2025, 7, 11, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*habits.Manager, *Collector, http.Handler) {
	t.Helper()
	m := habits.New(storage.NewRepository(storage.NewMemoryStore(), nil), nil, habits.WithClock(utils.FixedClock(now)))
	m.Initialize(context.Background())
	c := NewCollector(m)
	m.Subscribe(c.ObserveEvent)
	return m, c, NewServer(":0", m, c).Handler()
}

func addHabit(t *testing.T, m *habits.Manager, name string) models.Habit {
	t.Helper()
	return m.AddHabit(context.Background(), models.HabitDraft{
		Name:      name,
		Icon:      "drop.fill",
		Color:     models.Palette["cyan"],
		Target:    7,
		IsAllDays: true,
	})
}

func TestHealthz(t *testing.T) {
	_, _, h := setup(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestToggleEndpoint(t *testing.T) {
	m, c, h := setup(t)
	water := addHabit(t, m, "Água")
	addHabit(t, m, "Ler")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/habits/"+water.ID+"/toggle", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Completed         bool   `json:"completed"`
		Streak            int    `json:"streak"`
		AllGoalsCompleted bool   `json:"allGoalsCompleted"`
		Day               string `json:"day"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Completed)
	assert.Equal(t, 1, body.Streak)
	assert.False(t, body.AllGoalsCompleted)
	assert.Equal(t, "2025-07-11", body.Day)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.toggles.WithLabelValues("done")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.goalsCompleted))
}

func TestToggleEndpoint_NotFound(t *testing.T) {
	_, c, h := setup(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/habits/missing/toggle", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, testutil.CollectAndCount(c.toggles))
}

func TestToggleEndpoint_RejectsGet(t *testing.T) {
	_, _, h := setup(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/habits/x/toggle", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDailyGoalsCounter(t *testing.T) {
	m, c, _ := setup(t)
	only := addHabit(t, m, "Meditar")

	res := m.ToggleHabit(context.Background(), only.ID)
	require.True(t, res.AllGoalsCompleted)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.goalsCompleted))
}

func TestHabitsEndpoint(t *testing.T) {
	m, _, h := setup(t)
	water := addHabit(t, m, "Água")
	m.ToggleHabit(context.Background(), water.ID)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/habits", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []HabitStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, water.ID, got[0].ID)
	assert.True(t, got[0].CompletedToday)
	assert.True(t, got[0].DueToday)
	assert.Len(t, got[0].Week, 7)
	assert.True(t, got[0].Week[6])
	assert.True(t, got[0].IsAllDays)
	assert.Empty(t, got[0].Days)
}

func TestSummaryEndpoint(t *testing.T) {
	m, _, h := setup(t)
	addHabit(t, m, "Água")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalHabits":1`)
	assert.Contains(t, rec.Body.String(), `"dueToday":1`)
}

func TestMetricsEndpoint(t *testing.T) {
	m, c, h := setup(t)
	water := addHabit(t, m, "Água")
	m.ToggleHabit(context.Background(), water.ID)
	c.ObserveReminder(nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, want := range []string{
		"habits_total 1",
		"habits_completed_today 1",
		"habits_due_today 1",
		"habits_longest_streak 1",
		`habit_reminders_sent_total{result="sent"} 1`,
	} {
		assert.True(t, strings.Contains(body, want), "missing %q", want)
	}
}

func TestMonitorRecordsRouteTemplate(t *testing.T) {
	_, c, h := setup(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/habits/abc/toggle", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(
		c.httpRequests.WithLabelValues("/api/habits/{id}/toggle", http.MethodPost, http.StatusText(http.StatusNotFound)),
	))
}

func TestObserveToggleIgnoresMissing(t *testing.T) {
	_, c, _ := setup(t)
	c.ObserveToggle(habits.ToggleResult{})
	c.ObserveToggle(habits.ToggleResult{Found: true, Completed: false})
	assert.Equal(t, 1.0, testutil.ToFloat64(c.toggles.WithLabelValues("undone")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.toggles.WithLabelValues("done")))
}

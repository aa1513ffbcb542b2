package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/julianstephens/habits/internal/logger"
	"github.com/julianstephens/habits/internal/models"
	"github.com/julianstephens/habits/internal/stats"
	"github.com/julianstephens/habits/internal/utils"
)

var srvlog = logger.For("status")

type Server struct {
	addr      string
	src       Source
	collector *Collector
	accessLog io.Writer
}

type ServerOption func(*Server)

// WithAccessLog writes combined-format access logs to w.
func WithAccessLog(w io.Writer) ServerOption {
	return func(s *Server) { s.accessLog = w }
}

func NewServer(addr string, src Source, collector *Collector, opts ...ServerOption) *Server {
	s := &Server{
		addr:      addr,
		src:       src,
		collector: collector,
		accessLog: io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HabitStatus is one entry of /api/habits.
type HabitStatus struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Icon           string   `json:"icon"`
	Color          string   `json:"color"`
	Streak         int      `json:"streak"`
	Target         int      `json:"target"`
	IsAllDays      bool     `json:"isAllDays"`
	Days           []string `json:"days,omitempty"`
	DueToday       bool     `json:"dueToday"`
	CompletedToday bool     `json:"completedToday"`
	CompletionRate float64  `json:"completionRate"`
	Week           []bool   `json:"week"`
}

func newHabitStatus(h models.Habit, now time.Time) HabitStatus {
	return HabitStatus{
		ID:             h.ID,
		Name:           h.Name,
		Icon:           h.Icon,
		Color:          h.Color.Hex(),
		Streak:         h.Streak,
		Target:         h.Target,
		IsAllDays:      h.IsAllDays,
		Days:           h.DayNames(),
		DueToday:       h.ShouldBeDoneToday(now),
		CompletedToday: h.CompletedOn(now),
		CompletionRate: h.CompletionRate(now),
		Week:           stats.WeeklyGrid(h, now),
	}
}

// Handler returns the full middleware-wrapped router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(s.collector.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/habits", s.handleHabits).Methods(http.MethodGet)
	api.HandleFunc("/habits/{id}/toggle", s.handleToggle).Methods(http.MethodPost)

	r.Use(s.monitor)

	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.CombinedLoggingHandler(s.accessLog, r),
	)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srvlog.Info("Status server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	srvlog.Info("Status server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.src.Summary())
}

func (s *Server) handleHabits(w http.ResponseWriter, r *http.Request) {
	now := s.src.Now()
	list := s.src.Habits()
	out := make([]HabitStatus, 0, len(list))
	for _, h := range list {
		out = append(out, newHabitStatus(h, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	res := s.src.ToggleHabit(r.Context(), id)
	s.collector.ObserveToggle(res)
	if !res.Found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "habit not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":                id,
		"completed":         res.Completed,
		"streak":            res.Streak,
		"allGoalsCompleted": res.AllGoalsCompleted,
		"day":               utils.DayKey(s.src.Now()),
	})
}

func (s *Server) monitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.collector.httpRequests.WithLabelValues(route, r.Method, http.StatusText(ww.statusCode)).Inc()
		s.collector.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		srvlog.Warn("Failed to encode response", "error", err)
	}
}

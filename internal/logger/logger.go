// Package logger is the process-wide structured logger. Output goes to a
// rotating file under the store's config directory and, for debug runs and
// the reminder daemon, to stderr as well.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/habits/internal/constants"
)

// Logger is nil until Init succeeds. Every helper tolerates that.
var Logger *log.Logger

type Config struct {
	Debug     bool
	ConfigDir string
	// Stderr mirrors Info and above to stderr outside debug mode.
	Stderr bool
}

func Init(cfg Config) error {
	logDir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, constants.AppName+".log"),
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}

	opts := log.Options{
		ReportTimestamp: true,
		Prefix:          constants.AppName,
		Level:           log.WarnLevel,
	}
	var w io.Writer = file
	switch {
	case cfg.Debug:
		opts.Level = log.DebugLevel
		opts.ReportCaller = true
		w = io.MultiWriter(os.Stderr, file)
	case cfg.Stderr:
		opts.Level = log.InfoLevel
		w = io.MultiWriter(os.Stderr, file)
	default:
		// file only, kept greppable
		opts.Formatter = log.LogfmtFormatter
	}

	Logger = log.NewWithOptions(w, opts)
	return nil
}

// Scope tags every entry with a component name. It resolves the global
// logger on each call, so a Scope declared at package level works before Init.
type Scope struct {
	component string
}

func For(component string) Scope {
	return Scope{component: component}
}

func (s Scope) logger() *log.Logger {
	if Logger == nil {
		return nil
	}
	return Logger.With("component", s.component)
}

func (s Scope) Debug(msg string, keyvals ...interface{}) {
	if l := s.logger(); l != nil {
		l.Debug(msg, keyvals...)
	}
}

func (s Scope) Info(msg string, keyvals ...interface{}) {
	if l := s.logger(); l != nil {
		l.Info(msg, keyvals...)
	}
}

func (s Scope) Warn(msg string, keyvals ...interface{}) {
	if l := s.logger(); l != nil {
		l.Warn(msg, keyvals...)
	}
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

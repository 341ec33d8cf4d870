// Package logger provides the process-wide structured logger, shared by
// the CLI, daemon, and every core component.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Log is the global logger instance, configured by Init.
var Log = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// Init configures the global logger's level and, if logFile is non-empty,
// tees output to that file alongside stderr.
func Init(level string, logFile string) error {
	var logLevel log.Level
	switch level {
	case "debug":
		logLevel = log.DebugLevel
	case "warn":
		logLevel = log.WarnLevel
	case "error":
		logLevel = log.ErrorLevel
	default:
		logLevel = log.InfoLevel
	}

	writer := io.Writer(os.Stderr)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		writer = io.MultiWriter(os.Stderr, f)
	}

	Log = log.NewWithOptions(writer, log.Options{
		Level:           logLevel,
		ReportTimestamp: true,
		ReportCaller:    logLevel == log.DebugLevel,
		TimeFormat:      "15:04:05",
	})
	return nil
}

// For returns a logger scoped to a named component (e.g. "recommender",
// "simulate"), rendered as a prefix on every line it emits.
func For(component string) *log.Logger {
	return Log.WithPrefix(component)
}

func Debug(msg string, keyvals ...any) { Log.Debug(msg, keyvals...) }
func Info(msg string, keyvals ...any)  { Log.Info(msg, keyvals...) }
func Warn(msg string, keyvals ...any)  { Log.Warn(msg, keyvals...) }
func Error(msg string, keyvals ...any) { Log.Error(msg, keyvals...) }

package logger

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

// Init initializes the logger with default settings
func Init() {
	Initialize("info")
}

// Initialize sets up the global logger with Charm's log library. Unknown
// levels fall back to info.
func Initialize(logLevel string) {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})

	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(logLevel)))
	if err != nil {
		level = log.InfoLevel
	}
	Logger.SetLevel(level)

	Logger.Debug("Logger initialized", "level", level.String())
}

// SetFormat switches the output format: "json", "logfmt" or the default
// human readable text.
func SetFormat(format string) {
	switch strings.ToLower(format) {
	case "json":
		Get().SetFormatter(log.JSONFormatter)
	case "logfmt":
		Get().SetFormatter(log.LogfmtFormatter)
	default:
		Get().SetFormatter(log.TextFormatter)
	}
}

// Get returns the global logger instance
func Get() *log.Logger {
	if Logger == nil {
		Initialize("info")
	}
	return Logger
}

// WithContext creates a new logger with additional context fields
func WithContext(fields ...any) *log.Logger {
	return Get().With(fields...)
}

// Service creates a logger for a specific service
func Service(serviceName string) *log.Logger {
	return WithContext("service", serviceName)
}

// Database creates a logger for database operations
func Database() *log.Logger {
	return WithContext("component", "database")
}

// HTTP creates a logger for HTTP operations
func HTTP() *log.Logger {
	return WithContext("component", "http")
}

// Migration creates a logger for migration operations
func Migration() *log.Logger {
	return WithContext("component", "migration")
}

// Cache creates a logger for the key/value cache
func Cache() *log.Logger {
	return WithContext("component", "cache")
}

// Bus creates a logger for event bus operations
func Bus() *log.Logger {
	return WithContext("component", "bus")
}

// Realtime creates a logger for the websocket gateway
func Realtime() *log.Logger {
	return WithContext("component", "realtime")
}

// ObjectStore creates a logger for blob storage
func ObjectStore(driver string) *log.Logger {
	return WithContext("component", "objectstore", "driver", driver)
}

// Repository creates a logger for repository operations
func Repository(repoName string) *log.Logger {
	return WithContext("component", "repository", "repository", repoName)
}

// Handler creates a logger for HTTP handlers
func Handler(handlerName string) *log.Logger {
	return WithContext("component", "handler", "handler", handlerName)
}

package core

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LogLevel mirrors the charmbracelet levels so configuration does not
// need to import the logging library.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var once sync.Once

type logger struct {
	// helpers backs the Log* functions, which add one frame of their own
	helpers *log.Logger
	// structured is handed out by Logger() and called directly
	structured *log.Logger
}

var singleton *logger

func newLogger(callerOffset int) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "Grid 🧊 ",
		CallerOffset:    callerOffset,
	})
	l.SetLevel(log.DebugLevel)
	return l
}

func getLogger() *logger {
	once.Do(
		func() {
			singleton = &logger{
				helpers:    newLogger(1),
				structured: newLogger(0),
			}
		})
	return singleton
}

func (l *logger) setLevel(level log.Level) {
	l.helpers.SetLevel(level)
	l.structured.SetLevel(level)
}

// ParseLogLevel accepts the level names used in the TOML configuration.
func ParseLogLevel(s string) (LogLevel, error) {
	switch lvl := LogLevel(strings.ToLower(strings.TrimSpace(s))); lvl {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return lvl, nil
	case "":
		return LogLevelInfo, nil
	default:
		return "", fmt.Errorf("unknown log level '%s'", s)
	}
}

// SetLogLevel changes the level of the process logger.
func SetLogLevel(level LogLevel) {
	switch level {
	case LogLevelDebug:
		getLogger().setLevel(log.DebugLevel)
	case LogLevelWarn:
		getLogger().setLevel(log.WarnLevel)
	case LogLevelError:
		getLogger().setLevel(log.ErrorLevel)
	default:
		getLogger().setLevel(log.InfoLevel)
	}
}

// Logger exposes the underlying logger for structured key/value logging.
func Logger() *log.Logger {
	return getLogger().structured
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().helpers.Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().helpers.Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().helpers.Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().helpers.Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().helpers.Fatalf(msg, args...)
}

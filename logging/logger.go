// Package logging provides the injectable logging interface used across
// vldmgo. The interface shape is copied from dragonboat's logger.ILogger so
// that a caller already running dragonboat-based infrastructure elsewhere
// in its process can hand this client the same logger instance.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	dblogger "github.com/lni/dragonboat/v4/logger"
)

// ILogger re-exports dragonboat's logger interface so callers never need to
// import the dragonboat module directly to satisfy it.
type ILogger = dblogger.ILogger

// LogLevel re-exports dragonboat's level type.
type LogLevel = dblogger.LogLevel

const (
	DEBUG    = dblogger.DEBUG
	INFO     = dblogger.INFO
	WARNING  = dblogger.WARNING
	ERROR    = dblogger.ERROR
	CRITICAL = dblogger.CRITICAL
)

// clientLogger is the default ILogger implementation: it writes formatted
// lines to an injectable io.Writer (os.Stdout by default), never to a
// package-level singleton.
type clientLogger struct {
	name   string
	level  LogLevel
	logger *log.Logger
}

func (l *clientLogger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *clientLogger) Debugf(format string, args ...interface{}) {
	if l.level >= DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *clientLogger) Infof(format string, args ...interface{}) {
	if l.level >= INFO {
		l.log("INFO", format, args...)
	}
}

func (l *clientLogger) Warningf(format string, args ...interface{}) {
	if l.level >= WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *clientLogger) Errorf(format string, args ...interface{}) {
	if l.level >= ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *clientLogger) Panicf(format string, args ...interface{}) {
	if l.level >= CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

func (l *clientLogger) log(levelStr, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%-5s | %-16s | %s", levelStr, l.name, message)
}

// New creates an ILogger that writes to w, at INFO level by default.
func New(name string, w io.Writer) ILogger {
	return &clientLogger{
		name:   name,
		level:  INFO,
		logger: log.New(w, "", log.Ldate|log.Ltime),
	}
}

// CreateLogger creates the default ILogger implementation, writing to
// os.Stdout. Cluster and Connection do not call it themselves: with no
// logger supplied they use Noop.
func CreateLogger(name string) ILogger {
	return New(name, os.Stdout)
}

// ParseLevel converts a string level name ("debug", "info", "warn",
// "error") into a LogLevel, defaulting to INFO on an unrecognised value.
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warning", "warn":
		return WARNING
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Noop returns an ILogger that discards everything, useful in tests that do
// not want log noise but still need to satisfy the interface. Dragonboat
// orders levels CRITICAL < ERROR < WARNING < INFO < DEBUG (higher means
// more verbose), so a level below CRITICAL silences every method.
func Noop() ILogger {
	l := New("noop", io.Discard)
	l.SetLevel(CRITICAL - 1)
	return l
}

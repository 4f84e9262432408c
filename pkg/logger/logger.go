package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"highlight-service/pkg/config"
)

// Logger wraps logrus so the rest of the service never imports it directly.
type Logger struct {
	entry *logrus.Logger
	file  *os.File
}

var (
	globalMu     sync.RWMutex
	globalLogger = newDefaultLogger()
)

func newDefaultLogger() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return &Logger{entry: l}
}

// NewLogger builds a logger from service configuration.
func NewLogger(cfg *config.Config) *Logger {
	l := logrus.New()

	level := logrus.InfoLevel
	if cfg != nil {
		if parsed, err := logrus.ParseLevel(strings.ToLower(cfg.Log.Level)); err == nil {
			level = parsed
		}
	}
	l.SetLevel(level)

	if cfg != nil && strings.EqualFold(cfg.Log.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logger := &Logger{entry: l}

	var out io.Writer = os.Stdout
	if cfg != nil && strings.EqualFold(cfg.Log.Output, "file") && cfg.Log.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.FilePath), 0o755); err == nil {
			if f, err := os.OpenFile(cfg.Log.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				out = io.MultiWriter(os.Stdout, f)
				logger.file = f
			}
		}
	}
	l.SetOutput(out)

	return logger
}

// SetGlobalLogger swaps the package level logger used by the helpers below.
func SetGlobalLogger(l *Logger) {
	if l == nil {
		return
	}
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// Close flushes and releases the log file if one was opened.
func (l *Logger) Close() {
	if l.file != nil {
		_ = l.file.Sync()
		_ = l.file.Close()
		l.file = nil
	}
}

func current() *logrus.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger.entry
}

func withFields(fields []map[string]interface{}) *logrus.Entry {
	e := logrus.NewEntry(current())
	for _, m := range fields {
		e = e.WithFields(logrus.Fields(m))
	}
	return e
}

// Formatted helpers. Callers inline key=value pairs into the message.

func Debugf(format string, args ...interface{}) { current().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { current().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { current().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { current().Errorf(format, args...) }

// Structured helpers with optional field maps.

func Debug(msg string, fields ...map[string]interface{}) { withFields(fields).Debug(msg) }
func Info(msg string, fields ...map[string]interface{})  { withFields(fields).Info(msg) }
func Warn(msg string, fields ...map[string]interface{})  { withFields(fields).Warn(msg) }
func Error(msg string, fields ...map[string]interface{}) { withFields(fields).Error(msg) }

// Fatal logs the message and exits.
func Fatal(msg string, fields ...map[string]interface{}) { withFields(fields).Fatal(msg) }

// Package logger wraps logrus with the project's on-disk rotation policy
// and config shape (internal/config.LoggingSchema), so every manager gets
// the same console+file behavior the rest of the system configures through
// the config tree rather than through ad-hoc flags.
package logger

import (
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps logrus.Logger so callers depending on this package are not
// coupled directly to logrus.
type Logger struct {
	*logrus.Logger
}

// Config mirrors internal/config.LoggingSchema. It is declared independently
// so this package never imports internal/config (which would invert the
// dependency direction every manager package already assumes).
type Config struct {
	Level   string
	Format  string
	File    FileConfig
	Console ConsoleConfig
}

// FileConfig controls rotating file output, backed by lumberjack.
type FileConfig struct {
	Enabled bool
	// Path is the log file path, e.g. "logs/nexus.log".
	Path string
	// Rotation is a human size like "10 MB" or "500 KB"; parsed into
	// lumberjack's MaxSize (megabytes, rounded to nearest, minimum 1).
	Rotation string
	// Retention is a human duration like "30 days"; parsed into
	// lumberjack's MaxAge (days).
	Retention string
}

// ConsoleConfig controls stdout output. Level, if set, overrides Config.Level
// for the console destination only; this package applies one logger-wide
// level, so Console.Level is honored only when Console is the sole sink.
type ConsoleConfig struct {
	Enabled bool
	Level   string
}

// Hook is re-exported so callers can register logrus hooks (e.g. an
// audit-log bridge) without importing logrus directly.
type Hook = logrus.Hook

// New builds a Logger from cfg. Console and file output are both wired as a
// single io.MultiWriter when both are enabled; when neither is enabled
// output falls back to stdout so the process is never silently mute.
func New(cfg Config) *Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.Console.Enabled && !cfg.File.Enabled && cfg.Console.Level != "" {
		if consoleLevel, err := logrus.ParseLevel(strings.ToLower(cfg.Console.Level)); err == nil {
			level = consoleLevel
		}
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var writers []io.Writer
	if cfg.Console.Enabled || (!cfg.Console.Enabled && !cfg.File.Enabled) {
		writers = append(writers, os.Stdout)
	}
	if cfg.File.Enabled {
		writers = append(writers, fileWriter(cfg.File))
	}
	log.SetOutput(io.MultiWriter(writers...))

	return &Logger{Logger: log}
}

// NewDefault builds a Logger with sane stdout-only defaults, for use before
// the config service has loaded (e.g. bootstrap logging).
func NewDefault() *Logger {
	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)
	return &Logger{Logger: log}
}

func fileWriter(cfg FileConfig) *lumberjack.Logger {
	dir := filepathDir(cfg.Path)
	if dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    parseMegabytes(cfg.Rotation),
		MaxAge:     parseDays(cfg.Retention),
		MaxBackups: 0,
		Compress:   true,
	}
}

var sizePattern = regexp.MustCompile(`(?i)^\s*([\d.]+)\s*([KMG]?B)?\s*$`)

// parseMegabytes turns strings like "10 MB", "512KB" or "2GB" into the
// MaxSize lumberjack expects (megabytes, minimum 1).
func parseMegabytes(s string) int {
	if s == "" {
		return 100
	}
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 100
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 100
	}
	switch strings.ToUpper(m[2]) {
	case "KB":
		value /= 1024
	case "GB":
		value *= 1024
	}
	if value < 1 {
		return 1
	}
	return int(value + 0.5)
}

var durationPattern = regexp.MustCompile(`(?i)^\s*(\d+)\s*(day|days|hour|hours)?\s*$`)

// parseDays turns strings like "30 days" or "12 hours" into lumberjack's
// MaxAge (days, minimum 1). Hours convert to whole days rounded down.
func parseDays(s string) int {
	if s == "" {
		return 30
	}
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 30
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return 30
	}
	unit := strings.ToLower(m[2])
	if strings.HasPrefix(unit, "hour") {
		days := value / 24
		if days < 1 {
			return 1
		}
		return days
	}
	if value < 1 {
		return 1
	}
	return value
}

func filepathDir(path string) string {
	idx := strings.LastIndexAny(path, `/\`)
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// WithField returns a new log entry with a field.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields returns a new log entry with multiple fields.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// AddHook registers an hook, e.g. one that bridges warn+ entries into the
// security audit log.
func (l *Logger) AddHook(hook Hook) {
	l.Logger.AddHook(hook)
}

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dougsko/micro26/pkg/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents logging levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLogLevel maps a config level name to a LogLevel. Unknown names
// fall back to info.
func ParseLogLevel(level string) LogLevel {
	name := strings.ToUpper(level)
	if name == "WARNING" {
		return LevelWarn
	}
	for i, n := range levelNames {
		if n == name {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

// Fields are key/value pairs appended to a log line
type Fields map[string]interface{}

const timeLayout = "2006-01-02 15:04:05.000"

// Logger writes leveled lines for one component at a time to a set of
// sinks. Lines from the control loop and the socket goroutines are
// serialized so they never interleave.
type Logger struct {
	level      LogLevel
	structured bool

	mu    sync.Mutex
	sinks []io.Writer
	file  *lumberjack.Logger
}

// NewLogger creates a new logger from configuration
func NewLogger(cfg *config.Config) (*Logger, error) {
	l := &Logger{
		level:      ParseLogLevel(cfg.Logging.Level),
		structured: cfg.Logging.Structured,
	}

	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		l.file = &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSize, // megabytes
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAge, // days
			Compress:   cfg.Logging.Compress,
		}
		l.sinks = append(l.sinks, l.file)
	}

	// stdout is the only sink when no file is configured
	if cfg.Logging.Console || l.file == nil {
		l.sinks = append(l.sinks, os.Stdout)
	}

	return l, nil
}

// NewWriterLogger creates a logger that writes every line to w
func NewWriterLogger(level string, structured bool, w io.Writer) *Logger {
	return &Logger{
		level:      ParseLogLevel(level),
		structured: structured,
		sinks:      []io.Writer{w},
	}
}

// Close closes the rotating log file, if any
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) format(level LogLevel, component, message string, fields Fields) string {
	ts := time.Now().Format(timeLayout)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if l.structured {
		rec := map[string]interface{}{
			"time":      ts,
			"level":     level.String(),
			"component": component,
			"message":   message,
		}
		for _, k := range keys {
			if _, taken := rec[k]; !taken {
				rec[k] = fields[k]
			}
		}
		// map keys marshal sorted
		data, err := json.Marshal(rec)
		if err == nil {
			return string(data)
		}
		message = fmt.Sprintf("%s (unencodable fields: %v)", message, err)
		keys = nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s: %s", ts, level, component, message)
	for i, k := range keys {
		sep := " "
		if i == 0 {
			sep = " ["
		}
		fmt.Fprintf(&b, "%s%s=%v", sep, k, fields[k])
	}
	if len(keys) > 0 {
		b.WriteByte(']')
	}
	return b.String()
}

// Log writes one line if level passes the logger's threshold
func (l *Logger) Log(level LogLevel, component, message string, fields Fields) {
	if level < l.level {
		return
	}
	line := l.format(level, component, message, fields) + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range l.sinks {
		io.WriteString(w, line)
	}
}

func (l *Logger) Info(component, message string)  { l.Log(LevelInfo, component, message, nil) }
func (l *Logger) Error(component, message string) { l.Log(LevelError, component, message, nil) }

func (l *Logger) Debugf(component, format string, args ...interface{}) {
	l.Log(LevelDebug, component, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Infof(component, format string, args ...interface{}) {
	l.Log(LevelInfo, component, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Errorf(component, format string, args ...interface{}) {
	l.Log(LevelError, component, fmt.Sprintf(format, args...), nil)
}

// With binds a component and fields for a run of related lines, such as
// one scan or one menu action.
func (l *Logger) With(component string, fields Fields) *Entry {
	return &Entry{logger: l, component: component, fields: fields}
}

// Entry is a Logger bound to a component and a set of fields
type Entry struct {
	logger    *Logger
	component string
	fields    Fields
}

func (e *Entry) Infof(format string, args ...interface{}) {
	e.logger.Log(LevelInfo, e.component, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Warnf(format string, args ...interface{}) {
	e.logger.Log(LevelWarn, e.component, fmt.Sprintf(format, args...), e.fields)
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// InitGlobalLogger builds the process logger from cfg
func InitGlobalLogger(cfg *config.Config) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	SetGlobalLogger(logger)
	return nil
}

// SetGlobalLogger replaces the global logger. nil restores the stdout
// fallback on next use.
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// GetGlobalLogger returns the global logger, creating an info-level stdout
// logger if none was set
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	logger := globalLogger
	globalMu.RUnlock()
	if logger != nil {
		return logger
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewWriterLogger("info", false, os.Stdout)
	}
	return globalLogger
}

func CloseGlobalLogger() error {
	globalMu.RLock()
	logger := globalLogger
	globalMu.RUnlock()
	if logger == nil {
		return nil
	}
	return logger.Close()
}

func Info(component, message string)  { GetGlobalLogger().Info(component, message) }
func Error(component, message string) { GetGlobalLogger().Error(component, message) }

func Debugf(component, format string, args ...interface{}) {
	GetGlobalLogger().Debugf(component, format, args...)
}

func Infof(component, format string, args ...interface{}) {
	GetGlobalLogger().Infof(component, format, args...)
}

func Errorf(component, format string, args ...interface{}) {
	GetGlobalLogger().Errorf(component, format, args...)
}

// With binds fields on the global logger
func With(component string, fields Fields) *Entry {
	return GetGlobalLogger().With(component, fields)
}

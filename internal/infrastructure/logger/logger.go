// Package logger provides the structured JSON logger used by both binaries.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents the severity level of a log message
type Level int

const (
	// DebugLevel is used for development messages
	DebugLevel Level = iota
	// InfoLevel is used for general operational information
	InfoLevel
	// WarnLevel is used for warnings and potential issues
	WarnLevel
	// ErrorLevel is used for errors and unexpected events
	ErrorLevel
	// FatalLevel is used for critical errors that require termination
	FatalLevel
)

var levelNames = map[Level]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
	FatalLevel: "FATAL",
}

// String returns the upper-case name written into log records
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// MarshalJSON writes the level by name
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// ParseLevel converts a config value such as "debug" or "WARN" into a Level
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		name = "WARN"
	}
	for level, n := range levelNames {
		if n == name {
			return level, nil
		}
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// Fields carries the structured context of a log record
type Fields map[string]interface{}

// Logger defines the interface for the application logger
type Logger interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)
	Fatal(msg string, fields Fields)
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
}

// JSONLogger writes one JSON object per line
type JSONLogger struct {
	out    *syncWriter
	level  Level
	fields Fields
	exit   func(int)
}

// syncWriter serializes writes from loggers derived from the same root
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(p)
	return err
}

// NewJSONLogger creates a new JSON logger. A nil output writes to stdout.
func NewJSONLogger(output io.Writer, level Level) *JSONLogger {
	if output == nil {
		output = os.Stdout
	}

	return &JSONLogger{
		out:    &syncWriter{w: output},
		level:  level,
		fields: Fields{},
		exit:   os.Exit,
	}
}

// Level returns the minimum level this logger writes
func (l *JSONLogger) Level() Level {
	return l.level
}

// WithField returns a new logger with the field added to the log context
func (l *JSONLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(Fields{key: value})
}

// WithFields returns a new logger with the fields added to the log context
func (l *JSONLogger) WithFields(fields Fields) Logger {
	if len(fields) == 0 {
		return l
	}

	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return &JSONLogger{
		out:    l.out,
		level:  l.level,
		fields: merged,
		exit:   l.exit,
	}
}

// Debug logs a message at debug level
func (l *JSONLogger) Debug(msg string, fields Fields) {
	l.log(DebugLevel, msg, fields)
}

// Info logs a message at info level
func (l *JSONLogger) Info(msg string, fields Fields) {
	l.log(InfoLevel, msg, fields)
}

// Warn logs a message at warn level
func (l *JSONLogger) Warn(msg string, fields Fields) {
	l.log(WarnLevel, msg, fields)
}

// Error logs a message at error level
func (l *JSONLogger) Error(msg string, fields Fields) {
	l.log(ErrorLevel, msg, fields)
}

// Fatal logs a message at fatal level and then terminates the program
func (l *JSONLogger) Fatal(msg string, fields Fields) {
	l.log(FatalLevel, msg, fields)
	l.exit(1)
}

func (l *JSONLogger) log(level Level, msg string, fields Fields) {
	if level < l.level {
		return
	}

	// Skip log and the exported level method
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
		line = 0
	}

	record := make(map[string]interface{}, len(l.fields)+len(fields)+5)
	for k, v := range l.fields {
		record[k] = v
	}
	for k, v := range fields {
		if err, isErr := v.(error); isErr {
			v = err.Error()
		}
		record[k] = v
	}

	record["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	record["level"] = level
	record["message"] = msg
	record["file"] = file
	record["line"] = line

	data, err := json.Marshal(record)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"level":"ERROR","message":"Failed to marshal log entry","error":%q}`, err.Error()))
	}
	data = append(data, '\n')

	if err := l.out.write(data); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write log entry: %s\n", err)
	}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = NewJSONLogger(os.Stdout, InfoLevel)
)

// GetDefaultLogger returns the process-wide logger
func GetDefaultLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide logger. Nil is ignored.
func SetDefaultLogger(log Logger) {
	if log == nil {
		return
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = log
}

// Discard returns a logger that drops everything, for tests
func Discard() Logger {
	return NewJSONLogger(io.Discard, FatalLevel+1)
}

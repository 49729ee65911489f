package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, DebugLevel)

	log.Debug("Debug message", Fields{"key1": "value1"})

	entry := decodeLine(t, &buf)
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "Debug message", entry["message"])
	assert.Equal(t, "value1", entry["key1"])
	assert.Contains(t, entry, "timestamp")
	assert.Contains(t, entry["file"], "logger_test.go")
	assert.Contains(t, entry, "line")

	// Levels below the threshold are dropped
	buf.Reset()
	warnLogger := NewJSONLogger(&buf, WarnLevel)
	warnLogger.Debug("Should not appear", nil)
	warnLogger.Info("Should not appear either", nil)
	assert.Equal(t, "", buf.String())

	warnLogger.Warn("Warning message", nil)
	assert.Contains(t, buf.String(), "Warning message")

	buf.Reset()
	warnLogger.Error("Error message", nil)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestJSONLoggerContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, InfoLevel)

	log.WithField("username", "alice").Info("With field", nil)
	entry := decodeLine(t, &buf)
	assert.Equal(t, "alice", entry["username"])

	buf.Reset()
	derived := log.WithFields(Fields{"component": "synchronizer", "username": "bob"})
	derived.Info("With fields", Fields{"username": "carol"})
	entry = decodeLine(t, &buf)
	assert.Equal(t, "synchronizer", entry["component"])
	assert.Equal(t, "carol", entry["username"], "call fields win over context fields")

	// The parent keeps its own context
	buf.Reset()
	log.Info("Parent", nil)
	entry = decodeLine(t, &buf)
	assert.NotContains(t, entry, "component")
}

func TestJSONLoggerErrorValues(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, InfoLevel)

	log.Error("Request failed", Fields{"error": errors.New("connection refused")})

	entry := decodeLine(t, &buf)
	assert.Equal(t, "connection refused", entry["error"])
}

func TestJSONLoggerFatalExits(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, InfoLevel)

	code := -1
	log.exit = func(c int) { code = c }

	log.Fatal("Cannot continue", nil)

	assert.Equal(t, 1, code)
	assert.True(t, strings.Contains(buf.String(), "FATAL"))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		" warn ":  WarnLevel,
		"warning": WarnLevel,
		"Error":   ErrorLevel,
		"fatal":   FatalLevel,
	}
	for input, want := range tests {
		got, err := ParseLevel(input)
		assert.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestDefaultLogger(t *testing.T) {
	original := GetDefaultLogger()
	defer SetDefaultLogger(original)

	assert.NotNil(t, original)

	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))
	GetDefaultLogger().Debug("via default", nil)
	assert.Contains(t, buf.String(), "via default")

	SetDefaultLogger(nil)
	assert.NotNil(t, GetDefaultLogger())
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("dropped", Fields{"k": "v"})
	log.WithField("k", "v").Info("dropped", nil)
}

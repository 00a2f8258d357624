package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dougsko/micro26/pkg/config"
)

func TestLevelString(t *testing.T) {
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", LogLevel(9).String())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogLevel(tt.input))
		})
	}
}

func TestWriterLogger(t *testing.T) {
	t.Run("Level Filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWriterLogger("warn", false, &buf)

		logger.Info("radio", "tuned")
		logger.With("eeprom", nil).Warnf("vfo %s out of band", "A")

		out := buf.String()
		assert.NotContains(t, out, "tuned")
		assert.Contains(t, out, "[WARN] eeprom: vfo A out of band")
	})

	t.Run("Human Fields Sorted", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWriterLogger("debug", false, &buf)

		logger.Log(LevelDebug, "synth", "programmed", Fields{"hz": 23200000, "clk": 1})

		assert.Contains(t, buf.String(), "synth: programmed [clk=1 hz=23200000]\n")
	})

	t.Run("Structured", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWriterLogger("info", true, &buf)

		logger.With("radio", Fields{"vfo": "A", "slot": 3}).Infof("frequency %d", 14200000)

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "INFO", line["level"])
		assert.Equal(t, "radio", line["component"])
		assert.Equal(t, "frequency 14200000", line["message"])
		assert.Equal(t, "A", line["vfo"])
		assert.Equal(t, float64(3), line["slot"])
	})

	t.Run("Structured Escapes Quotes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWriterLogger("info", true, &buf)

		logger.Infof("menu", `label "%s"`, "SCAN")

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, `label "SCAN"`, line["message"])
	})

	t.Run("Fields Cannot Replace Header", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWriterLogger("info", true, &buf)

		logger.With("scan", Fields{"level": "bogus"}).Infof("started")

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "INFO", line["level"])
	})

	t.Run("Entry Respects Level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWriterLogger("warn", false, &buf)

		logger.With("scan", Fields{"slot": 2}).Infof("empty")
		assert.Empty(t, buf.String())
	})
}

func TestNewLoggerWithFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "micro26.log")
	cfg.Logging.Level = "debug"

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Errorf("engine", "bus write failed: %s", "nack")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(cfg.Logging.File)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[ERROR] engine: bus write failed: nack"))
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalLogger(NewWriterLogger("info", false, &buf))
	defer SetGlobalLogger(nil)

	Infof("menu", "category %d", 3)
	Debugf("menu", "hidden")
	With("menu", Fields{"item": 4}).Warnf("wrapped")

	assert.Contains(t, buf.String(), "menu: category 3")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN] menu: wrapped [item=4]")
	assert.NotNil(t, GetGlobalLogger())
}

package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(""))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("verbose"))
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", FormatJSON)
	log.Info("loaded rules")
	log.Debug("hidden")
	_ = log.Sync()

	out := buf.String()
	assert.Contains(t, out, `"msg":"loaded rules"`)
	assert.Contains(t, out, `"level":"INFO"`)
	assert.NotContains(t, out, "hidden")
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", FormatConsole)
	log.Info("quiet")
	log.Warn("loud")
	_ = log.Sync()

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

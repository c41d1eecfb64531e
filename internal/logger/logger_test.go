package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestInitialize_Levels(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		"WARN":    log.WarnLevel,
		"error":   log.ErrorLevel,
		"verbose": log.InfoLevel,
		"":        log.InfoLevel,
	}
	for in, want := range tests {
		Initialize(in)
		assert.Equal(t, want, Get().GetLevel(), in)
	}
}

func TestSetFormat_JSON(t *testing.T) {
	Initialize("info")
	SetFormat("json")
	defer SetFormat("text")

	var buf bytes.Buffer
	Get().SetOutput(&buf)
	Cache().Info("cache ready", "addr", "localhost:6379")

	assert.Contains(t, buf.String(), `"msg":"cache ready"`)
	assert.Contains(t, buf.String(), `"component":"cache"`)
}

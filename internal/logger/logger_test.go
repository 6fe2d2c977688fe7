package logger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"modbridge/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{" WARN ", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logger.ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log, cleanup, err := logger.New(logger.Options{Level: "info", Console: &buf})
	require.NoError(t, err)
	defer cleanup()

	log.Debugw("hidden")
	log.Infow("preset applied", "preset", "p1")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "preset applied")
	assert.Contains(t, out, `"preset": "p1"`)
	assert.NotContains(t, out, "hidden")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modbridge.log")
	log, cleanup, err := logger.New(logger.Options{File: path})
	require.NoError(t, err)

	log.Warn("slot busy")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "slot busy")
}

func TestNew_NoSinks(t *testing.T) {
	log, cleanup, err := logger.New(logger.Options{})
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, log)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := logger.New(logger.Options{Level: "chatty"})
	assert.Error(t, err)
}

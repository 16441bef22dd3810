package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriterRenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, slog.LevelInfo)

	log.Warn("draw failed", slog.Any("error", errors.New("boom")))
	log.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "err=boom")
	assert.NotContains(t, out, "error=")
	assert.NotContains(t, out, "hidden")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() { NewNop().Error("ignored") })
}

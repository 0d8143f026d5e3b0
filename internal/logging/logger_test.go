package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("WIB", 7*3600)
	logger := New(&buf, slog.LevelInfo, loc)

	logger.Info("property_created", slog.String("id", "abc"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "property_created", entry["msg"])
	assert.Equal(t, "abc", entry["id"])
	assert.Contains(t, entry["ts"], "+07:00")
	assert.NotContains(t, entry, "time")
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, time.UTC)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Error("kept")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

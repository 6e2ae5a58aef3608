package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "json", &buf)

	log.Debug("hidden")
	log.Info("card added", "id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "card added", entry["msg"])
	assert.Equal(t, "abc", entry["id"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	New("error", "text", &buf).Warn("dropped")
	assert.Empty(t, buf.String())

	New("debug", "text", &buf).Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

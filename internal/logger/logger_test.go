package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthwatch/internal/config"
)

func TestNewProductionWritesJSON(t *testing.T) {
	cfg, _ := config.Preset(config.ModeProduction)
	var buf bytes.Buffer

	log := Component(New(cfg, &buf), "monitor")
	log.Info().Msg("started")
	log.Debug().Msg("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "started", entry["message"])
	assert.Equal(t, "monitor", entry["component"])
	assert.Equal(t, "production", entry["mode"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewDebugIsHumanReadable(t *testing.T) {
	cfg, _ := config.Preset(config.ModeDevelopment)
	var buf bytes.Buffer

	log := New(cfg, &buf)
	log.Debug().Msg("tick deferred")

	assert.Contains(t, buf.String(), "tick deferred")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "production", "warn")

	log.Info().Msg("dropped")
	log.Warn().Str("code", "abc").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "abc", entry["code"])
	assert.Equal(t, "kept", entry["message"])
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "production", "loud")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

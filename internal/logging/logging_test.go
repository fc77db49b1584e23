package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	ConfigureWriter(&buf, "debug", false)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Debug().Str("game", "g1").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "g1", entry["game"])
	assert.Equal(t, "hello", entry["message"])
}

func TestConfigureWriterFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	ConfigureWriter(&buf, "warn", false)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestConfigureWriterUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	ConfigureWriter(&buf, "loud", false)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	assert.Contains(t, buf.String(), "unknown log level")
}

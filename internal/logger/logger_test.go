package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "prod", "info")
	l.Debug().Msg("hidden")
	l.Info().Uint64("program_id", 7).Msg("program created")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "program created", line["message"])
	assert.Equal(t, float64(7), line["program_id"])
}

func TestDevelopmentWritesConsole(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "dev", "debug")
	l.Debug().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotEqual(t, byte('{'), buf.Bytes()[0])
}

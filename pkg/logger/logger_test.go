package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-admin/pkg/logger"
)

func TestNew_ProduccionEscribeJSONConComponente(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "debug", Out: &buf})

	log.Component("session").Info().Str("transition", "authenticated").Msg("sesión actualizada")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "session", line["component"])
	assert.Equal(t, "authenticated", line["transition"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_NivelFiltraEventos(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "warn", Out: &buf})

	log.Info().Msg("no debe aparecer")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("sí aparece")
	assert.Contains(t, buf.String(), "sí aparece")
}

func TestNop_NoEscribe(t *testing.T) {
	log := logger.Nop()
	assert.NotPanics(t, func() { log.Error().Msg("descartado") })
}

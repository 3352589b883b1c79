package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := WithService(New(Config{Level: "warn", Format: "json", Output: &buf}), "api")

	l.Info().Msg("dropped")
	l.Warn().Str("op", "search").Msg("kept")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "kept", event["message"])
	assert.Equal(t, "api", event["service"])
	assert.Equal(t, "search", event["op"])
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "chatty", Format: "json", Output: &buf})

	l.Debug().Msg("dropped")
	assert.Zero(t, buf.Len())
	l.Info().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, InfoLevel, ParseLevel(""))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"))
}

func TestConfigureWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: InfoLevel, Output: &buf})
	t.Cleanup(func() { Configure(Config{Level: InfoLevel}) })

	l := Component("ingestion")
	l.Info().Str("semester", "1-1").Msg("run finished")
	Debug().Msg("hidden")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ingestion", entry["component"])
	assert.Equal(t, "1-1", entry["semester"])
	assert.Equal(t, "run finished", entry["message"])
	assert.NotContains(t, buf.String(), "hidden")
}

package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/biryani-api/internal/config"
)

func TestInitJSONWithFile(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "biryani.log")
	require.NoError(t, initWith(config.LogConfig{Level: "debug", Format: "json", File: file, MaxSizeMB: 1}, &buf))

	log.Debug().Str("image", "a.jpg").Msg("classified")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "classified", entry["message"])
	assert.Equal(t, "a.jpg", entry["image"])
	assert.Contains(t, entry["caller"], "logger_test.go:")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "classified")
}

func TestInitRespectsLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	require.NoError(t, initWith(config.LogConfig{Level: "warn", Format: "json"}, &buf))

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
}

func TestInitRejectsBadLevel(t *testing.T) {
	assert.Error(t, initWith(config.LogConfig{Level: "loud", Format: "json"}, &bytes.Buffer{}))
}

package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeToWriter(t *testing.T) {
	var buf bytes.Buffer
	log, err := New().ToWriter(&buf).Make()
	require.NoError(t, err)

	log.Info().Str("component", "syncer").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "syncer", line["component"])
	assert.Contains(t, line, "time")
}

func TestMakeToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journify.log")
	log, err := New().ToPath(path).Make()
	require.NoError(t, err)

	log.Warn().Msg("to file")

	// A bad path fails at Make, not at first write.
	_, err = New().ToPath(filepath.Join(path, "not-a-dir", "x.log")).Make()
	assert.Error(t, err)
}

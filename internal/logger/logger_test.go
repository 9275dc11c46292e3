package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsNop(t *testing.T) {
	l := New()
	require.NotNil(t, l.Log)
	l.Log.Info("discarded")
}

func TestInitRejectsBadLevel(t *testing.T) {
	l := New()
	assert.Error(t, l.Init("loud"))
	assert.Error(t, l.InitFile("loud", filepath.Join(t.TempDir(), "x.log")))
}

func TestInit(t *testing.T) {
	l := New()
	require.NoError(t, l.Init("debug"))
	assert.True(t, l.Log.Core().Enabled(-1))
}

func TestInitFileWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "client.log")
	l := New()
	require.NoError(t, l.InitFile("info", path))

	l.Log.Info("load sessions failed")
	l.Log.Debug("hidden")
	require.NoError(t, l.Log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "load sessions failed")
	assert.NotContains(t, string(data), "hidden")
}

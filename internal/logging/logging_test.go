package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "greeter.log")
	log, err := New(path, true)
	require.NoError(t, err)
	log.Named("core").Debug("hello")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"logger":"core"`)
}

func TestNew_InfoByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greeter.log")
	log, err := New(path, false)
	require.NoError(t, err)
	log.Debug("hidden")
	log.Info("shown")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNew_EmptyPathIsNop(t *testing.T) {
	log, err := New("", false)
	require.NoError(t, err)
	log.Info("nowhere")
}

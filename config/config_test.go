package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "object_backend: local\nobject_backend_path: /tmp/data\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "local", c.ObjectBackend)
	assert.Equal(t, uint64(defaultStripeSize), c.StripeSize)
	assert.Equal(t, "bolt", c.KVEngine)
	assert.Equal(t, ":4711", c.ListenAddress)
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "stripe_size: 1024\nlisten_address: \":9000\"\nservers:\n  - address: \"10.0.0.1:4711\"\n  - address: \"10.0.0.2:4711\"\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1024), c.StripeSize)
	assert.Equal(t, ":9000", c.ListenAddress)
	require.Len(t, c.Servers, 2)
	assert.Equal(t, "10.0.0.1:4711", c.Servers[0].Address)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestWatcherPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "stripe_size: 1024\n")

	w, err := NewWatcher(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, uint64(1024), w.Current().StripeSize)

	writeConfig(t, path, "stripe_size: 2048\n")

	require.Eventually(t, func() bool {
		return w.Current().StripeSize == 2048
	}, 2*time.Second, 20*time.Millisecond)
}

func TestOpenObjectBackendUnknownDriver(t *testing.T) {
	c := &Config{ObjectBackend: "no-such-driver"}
	_, err := OpenObjectBackend(c)
	assert.Error(t, err)
}

func TestOpenObjectBackendLocal(t *testing.T) {
	c := &Config{ObjectBackend: "local", ObjectBackendPath: t.TempDir()}
	b, err := OpenObjectBackend(c)
	require.NoError(t, err)
	require.NoError(t, b.Close())
}

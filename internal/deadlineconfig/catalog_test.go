package deadlineconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeCatalog(t *testing.T, path string, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestCatalog_LoadParsesEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deadlines.yaml")
	writeCatalog(t, path, "deadlines:\n  - name: heartbeat\n    duration: 5s\n")

	c, err := Load(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	d, ok := c.Duration("heartbeat")
	require.True(t, ok)
	require.Equal(t, 5*time.Second, d)

	_, ok = c.Duration("missing")
	require.False(t, ok)
}

func TestCatalog_HotReloadsOnFileWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deadlines.yaml")
	writeCatalog(t, path, "deadlines:\n  - name: heartbeat\n    duration: 5s\n")

	c, err := Load(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	writeCatalog(t, path, "deadlines:\n  - name: heartbeat\n    duration: 30s\n")

	require.Eventually(t, func() bool {
		d, ok := c.Duration("heartbeat")
		return ok && d == 30*time.Second
	}, 2*time.Second, 20*time.Millisecond)
}

func TestCatalog_LoadFailsOnMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"), zaptest.NewLogger(t))
	require.Error(t, err)
}

package dbcontext_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapdb/heapdb/internal/dbcontext"
)

func TestLoadConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app_name: heapdb
storage:
  workdir: /var/lib/heapdb
buffer_pool:
  capacity: 128
lock:
  deadlock_timeout_ms: 500
  poll_interval_ms: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := dbcontext.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "heapdb", cfg.AppName)
	require.Equal(t, "/var/lib/heapdb", cfg.Storage.Workdir)
	require.Equal(t, 128, cfg.BufferPool.Capacity)
	require.Equal(t, 500, cfg.Lock.DeadlockTimeoutMS)
}

func TestLoadConfigDefaultsCapacity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  workdir: /tmp/heapdb\n"), 0o644))

	cfg, err := dbcontext.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, dbcontext.DefaultCapacity, cfg.BufferPool.Capacity)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := dbcontext.LoadConfig("/nonexistent/path/config.yaml")
	require.Error(t, err)
}

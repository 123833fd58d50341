package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("wal:\n  mode: file\n  dir: /tmp/wal\nsql:\n  cache_size: 1024\n"))
	require.NoError(t, err)
	assert.Equal(t, WALFile, cfg.WAL.Mode)
	assert.Equal(t, "/tmp/wal", cfg.WAL.Dir)
	assert.Equal(t, 1024, cfg.SQL.CacheSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "default", cfg.Name)
}

func TestConfigValidate(t *testing.T) {
	_, err := ParseConfig([]byte("wal:\n  mode: tape\n"))
	assert.Error(t, err)
	_, err = ParseConfig([]byte("sql:\n  cache_size: -1\n"))
	assert.Error(t, err)
	_, err = ParseConfig([]byte("wal: ["))
	assert.Error(t, err)

	cfg := &Config{}
	cfg.Normalize()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultStmtCacheSize, cfg.SQL.CacheSize)
	assert.Equal(t, WALMemory, cfg.WAL.Mode)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samehada.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: test\nlog:\n  level: debug\n"), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Name)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

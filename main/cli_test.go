package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplRunsStatements(t *testing.T) {
	cmd := NewRootCommand()
	stderr := new(bytes.Buffer)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(strings.Join([]string{
		"CREATE TABLE t (a INT PRIMARY KEY)",
		"INSERT INTO t VALUES (1)",
		"INSERT INTO t VALUES (1)",
		"SELECT * FROM t",
		".quit",
		"SELECT nothing",
	}, "\n")))
	cmd.SetArgs([]string{"repl", "--log-level", "error"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stderr.String(), "Duplicate key exists")
	assert.NotContains(t, stderr.String(), "nothing")
}

func TestExecStopsAtFirstError(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"exec", "--log-level", "error", "CREATE TABLE t (a INT PRIMARY KEY)", "DROP TABLE missing"})
	err := cmd.Execute()
	assert.Error(t, err)
}

func TestConfigFlags(t *testing.T) {
	opts := &RootOptions{WALDir: t.TempDir(), LogLevel: "debug"}
	cfg, err := opts.config()
	require.NoError(t, err)
	assert.Equal(t, "file", string(cfg.WAL.Mode))
	assert.Equal(t, "debug", cfg.Log.Level)
}

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgsDefaults(t *testing.T) {
	opts, err := parseArgs(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "up", opts.cmd)
	assert.NotEmpty(t, opts.dir)
}

func TestParseArgsRejectsInvalid(t *testing.T) {
	cases := map[string][]string{
		"unknown command":   {"-cmd", "sideways"},
		"create no name":    {"-cmd", "create"},
		"version no target": {"-cmd", "version"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseArgs(args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestRunOfflineCreateThenValidate(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, runOffline(options{cmd: "create", dir: dir, name: "add index"}, &out))
	assert.Contains(t, out.String(), "created migration:")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".sql"))

	out.Reset()
	require.NoError(t, runOffline(options{cmd: "validate", dir: dir, skipSchema: true}, &out))
	assert.Contains(t, out.String(), "passed")

	err = runOffline(options{cmd: "validate", dir: dir}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ux_carts_user")
}

func TestRunOfflineValidatesShippedMigrations(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runOffline(options{cmd: "validate", dir: filepath.Join("..", "..", "pkg", "migrate", "migrations")}, &out))
	assert.Contains(t, out.String(), "passed")
}

func TestRunOfflineValidateFailsOnBadName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- +goose Up\n"), 0o644))

	err := runOffline(options{cmd: "validate", dir: dir}, io.Discard)
	assert.Error(t, err)
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanpm2001/atom/internal/config"
	"github.com/seanpm2001/atom/internal/schema"
)

const pointDef = `
[[class]]
name = "Point"

  [[class.member]]
  name = "x"
  kind = "int"
  default = 0

  [[class.member]]
  name = "y"
  kind = "int"
  depends_on = ["x"]
`

func execute(ctx context.Context, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func writeDefs(t *testing.T) string {
	t.Helper()
	t.Setenv("ATOM_SCHEMA_PATHS", "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "point.toml"), []byte(pointDef), 0o644))
	return dir
}

func TestVersion(t *testing.T) {
	out, err := execute(context.Background(), "version")
	require.NoError(t, err)
	assert.Equal(t, "atom dev (commit unknown, built unknown)\n", out)
}

func TestCheck(t *testing.T) {
	dir := writeDefs(t)

	out, err := execute(context.Background(), "check", dir)
	require.NoError(t, err)
	assert.Equal(t, "Point\t2 members\n1 classes in 1 files\n", out)

	out, err = execute(context.Background(), "check", "-m", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "  x\tint\t-> y\n")
	assert.Contains(t, out, "  y\tint\n")
}

func TestCheck_ConfiguredPaths(t *testing.T) {
	dir := writeDefs(t)
	cfgPath := filepath.Join(t.TempDir(), "atom.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[schema]\npaths = ['"+dir+"']\n"), 0o644))

	out, err := execute(context.Background(), "--config", cfgPath, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "1 classes in 1 files")
}

func TestCheck_Errors(t *testing.T) {
	writeDefs(t)

	_, err := execute(context.Background(), "check")
	assert.ErrorIs(t, err, errNoSchemaPaths)

	bad := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bad, "bad.toml"),
		[]byte("[[class]]\nname = \"A\"\n[[class.member]]\nname = \"x\"\nkind = \"blob\"\n"), 0o644))
	_, err = execute(context.Background(), "check", bad)
	assert.ErrorIs(t, err, schema.ErrUnknownKind)
}

func TestRootFlags_InvalidLogLevel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--log-level", "loud", "version"})
	assert.ErrorIs(t, cmd.Execute(), config.ErrInvalidConfig)
}

func TestRun(t *testing.T) {
	dir := writeDefs(t)

	out, err := execute(context.Background(), "run", "-s", dir, "-e",
		`local p = atom.new("Point") p.x = 3 print(p.x + 1, #atom.classes())`)
	require.NoError(t, err)
	assert.Equal(t, "4\t1\n", out)

	script := filepath.Join(t.TempDir(), "main.lua")
	require.NoError(t, os.WriteFile(script, []byte(`
local p = atom.new("Point")
local seen = {}
p:observe("y", function(c) seen[#seen + 1] = c.kind end)
p.y = 1
p.y = 2
print(table.concat(seen, ","))
`), 0o644))

	out, err = execute(context.Background(), "run", "--schema", dir, script)
	require.NoError(t, err)
	assert.Equal(t, "create,update\n", out)
}

func TestRun_Errors(t *testing.T) {
	dir := writeDefs(t)

	_, err := execute(context.Background(), "run", "-s", dir)
	assert.Error(t, err)

	_, err = execute(context.Background(), "run", "-s", dir, "-e", "print(1)", "x.lua")
	assert.Error(t, err)

	_, err = execute(context.Background(), "run", "-s", dir, "-e", `atom.new("Missing")`)
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	dir := writeDefs(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	out, err := execute(ctx, "watch", "--metrics-addr", "127.0.0.1:0", dir)
	require.NoError(t, err)
	assert.Equal(t, "watching 1 classes in 1 files\n", out)
}

func TestWatch_WithoutMetrics(t *testing.T) {
	dir := writeDefs(t)
	t.Setenv("ATOM_METRICS_ENABLED", "false")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	out, err := execute(ctx, "watch", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "watching 1 classes")
}

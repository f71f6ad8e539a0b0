package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlab/hindsight/internal/event"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const fullManifest = `
[project]
name = "checkout"

[run]
entry = "scripts/main.hsl"
max_steps = 50000

[trace]
archive = "traces/hindsight.db"
disabled_kinds = ["loop-iteration", "while-condition"]
`

func TestLoadFullManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, fullManifest)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, m.Path)
	assert.Equal(t, dir, m.Root)
	assert.Equal(t, "checkout", m.Config.Project.Name)
	assert.Equal(t, filepath.Join(dir, "scripts", "main.hsl"), m.EntryPath())
	assert.Equal(t, filepath.Join(dir, "traces", "hindsight.db"), m.ArchivePath())
	assert.Equal(t, 50000, m.MaxSteps())
	assert.Equal(t, []event.Kind{event.KindLoopIteration, event.KindWhileCondition}, m.DisabledKinds())
}

func TestLoadMinimalManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "[project]\nname = \"demo\"\n")

	m, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, m.EntryPath())
	assert.Empty(t, m.ArchivePath())
	assert.Zero(t, m.MaxSteps())
	assert.Nil(t, m.DisabledKinds())
}

func TestLoadAbsolutePathsKept(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[project]
name = "demo"

[run]
entry = "/opt/scripts/main.hsl"
`)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/scripts/main.hsl", m.EntryPath())
}

func TestLoadValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing project name",
			content: "[run]\nentry = \"main.hsl\"\n",
			wantErr: "missing [project].name",
		},
		{
			name:    "blank project name",
			content: "[project]\nname = \"  \"\n",
			wantErr: "missing [project].name",
		},
		{
			name:    "unknown key",
			content: "[project]\nname = \"demo\"\nentry = \"main.hsl\"\n",
			wantErr: "unknown key",
		},
		{
			name:    "negative max steps",
			content: "[project]\nname = \"demo\"\n[run]\nmax_steps = -1\n",
			wantErr: "[run].max_steps must not be negative",
		},
		{
			name:    "unknown event kind",
			content: "[project]\nname = \"demo\"\n[trace]\ndisabled_kinds = [\"assignment\"]\n",
			wantErr: `unknown event kind "assignment"`,
		},
		{
			name:    "malformed toml",
			content: "[project\nname=\n",
			wantErr: "parse manifest",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeManifest(t, dir, tc.content)

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\nname = \"demo\"\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, ok, err := Find(nested)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, ManifestName), path)
}

func TestFindAbsent(t *testing.T) {
	dir := t.TempDir()

	path, ok, err := Find(dir)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, path)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, fullManifest)
	nested := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	m, ok, err := Discover(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "checkout", m.Config.Project.Name)
	assert.Equal(t, root, m.Root)
}

func TestDiscoverAbsent(t *testing.T) {
	m, ok, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestDiscoverBadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[project]\n")

	_, ok, err := Discover(dir)
	assert.True(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing [project].name")
}

func TestNilManifestHelpers(t *testing.T) {
	var m *Manifest
	assert.Empty(t, m.EntryPath())
	assert.Empty(t, m.ArchivePath())
	assert.Zero(t, m.MaxSteps())
	assert.Nil(t, m.DisabledKinds())
}

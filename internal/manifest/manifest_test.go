package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManifest_WriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := New()
	m.Pages = 2
	m.Assets = 1
	m.Record("intro.html", []byte("<html>a</html>"))
	m.Record("rooflines.html", []byte("<html>b</html>"))
	m.Record("assets/fig.png", []byte{0x89, 0x50})

	require.NoError(t, m.Write(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, m.Pages, loaded.Pages)
	require.Equal(t, m.Assets, loaded.Assets)
	require.Equal(t, m.Entries, loaded.Entries)
}

func TestManifest_WriteIsDeterministic(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	build := func() *Manifest {
		m := New()
		m.Pages = 3
		m.Record("z.html", []byte("z"))
		m.Record("a.html", []byte("a"))
		m.Record("m.html", []byte("m"))
		return m
	}
	require.NoError(t, build().Write(dir1))
	require.NoError(t, build().Write(dir2))

	b1, err := os.ReadFile(filepath.Join(dir1, Filename))
	require.NoError(t, err)
	b2, err := os.ReadFile(filepath.Join(dir2, Filename))
	require.NoError(t, err)
	require.Equal(t, b1, b2)
}

func TestLoad_MissingManifestReturnsEmpty(t *testing.T) {
	m, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, m.Entries)
}

func TestLoad_CorruptManifestErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, Filename), []byte("{nope"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestHashFile_MatchesHashBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	content := []byte("some bytes")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	got, err := HashFile(path)
	require.NoError(t, err)
	require.Equal(t, HashBytes(content), got)
}

func TestCompare_ClassifiesDifferences(t *testing.T) {
	oldM := New()
	oldM.Record("keep.html", []byte("same"))
	oldM.Record("edit.html", []byte("before"))
	oldM.Record("gone.html", []byte("bye"))

	newM := New()
	newM.Record("keep.html", []byte("same"))
	newM.Record("edit.html", []byte("after"))
	newM.Record("new.html", []byte("hi"))

	d := Compare(oldM, newM)
	require.Equal(t, []string{"new.html"}, d.Added)
	require.Equal(t, []string{"edit.html"}, d.Changed)
	require.Equal(t, []string{"gone.html"}, d.Removed)
	require.False(t, d.Empty())

	require.True(t, Compare(newM, newM).Empty())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "book.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MinimalConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "site:\n  title: Scaling Transformers\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Scaling Transformers", cfg.Site.Title)
	require.Equal(t, "chapters", cfg.Content.Dir)
	require.Equal(t, "assets", cfg.Content.AssetsDir)
	require.Equal(t, "site", cfg.Output.Dir)
	require.Equal(t, 1313, cfg.Serve.Port)
	require.Equal(t, "gh-pages", cfg.Publish.Branch)
	require.Equal(t, "origin", cfg.Publish.Remote)
	require.Equal(t, "/", cfg.Site.BaseURL)
	require.True(t, cfg.History.Enabled())
}

func TestLoad_MissingFile_ReturnsErrConfigNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_MissingTitle_ReturnsErrConfigInvalid(t *testing.T) {
	path := writeConfig(t, "site:\n  description: no title here\n")

	_, err := Load(path)
	require.ErrorIs(t, err, ErrConfigInvalid)
}

func TestLoad_MalformedYAML_ReturnsErrConfigInvalid(t *testing.T) {
	path := writeConfig(t, "site: [unclosed\n")

	_, err := Load(path)
	require.ErrorIs(t, err, ErrConfigInvalid)
}

func TestLoad_BaseURLGetsTrailingSlash(t *testing.T) {
	path := writeConfig(t, "site:\n  title: T\n  base_url: https://example.com/book\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/book/", cfg.Site.BaseURL)
}

func TestLoad_EnvOverridesBaseURLAndOutput(t *testing.T) {
	path := writeConfig(t, "site:\n  title: T\n  base_url: /orig/\noutput:\n  dir: orig-out\n")
	t.Setenv(EnvPrefix+"BASE_URL", "/overridden/")
	t.Setenv(EnvPrefix+"OUTPUT_DIR", "env-out")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/overridden/", cfg.Site.BaseURL)
	require.Equal(t, "env-out", cfg.Output.Dir)
}

func TestLoad_InvalidRebuildInterval_Fails(t *testing.T) {
	path := writeConfig(t, "site:\n  title: T\nserve:\n  rebuild_interval: soon\n")

	_, err := Load(path)
	require.ErrorIs(t, err, ErrConfigInvalid)
}

func TestRebuildIntervalDuration_Parses(t *testing.T) {
	s := ServeConfig{RebuildInterval: "30m"}
	require.Equal(t, 30*time.Minute, s.RebuildIntervalDuration())

	require.Zero(t, ServeConfig{}.RebuildIntervalDuration())
}

func TestInit_WritesConfigAndSampleChapter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.yaml")

	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "My Book", cfg.Site.Title)

	_, err = os.Stat(filepath.Join(dir, "chapters", "introduction.md"))
	require.NoError(t, err)

	// Second init without force must refuse to overwrite.
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))
}

func TestLiveReloadEnabled_DefaultsOn(t *testing.T) {
	require.True(t, ServeConfig{}.LiveReloadEnabled())
	off := false
	require.False(t, ServeConfig{LiveReload: &off}.LiveReloadEnabled())
}

package commands

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/history"
	"github.com/bookforge/bookforge/internal/site"
)

// newRebuilder builds a rebuilder over a freshly initialized project.
func newRebuilder(t *testing.T) (*rebuilder, *config.Config) {
	t.Helper()
	root := newProject(t)
	cfg, err := config.Load(root.Config)
	require.NoError(t, err)
	rb := &rebuilder{
		generator:  site.NewGenerator(cfg, cfg.Output.Dir),
		cfg:        cfg,
		configPath: root.Config,
	}
	return rb, cfg
}

func TestRebuilder_PersistsReportAndHistory(t *testing.T) {
	rb, cfg := newRebuilder(t)

	var notified bool
	rb.notify = func() { notified = true }

	report := rb.Rebuild(context.Background(), "startup")
	require.NotNil(t, report)
	require.Equal(t, site.OutcomeSuccess, report.Outcome)
	require.True(t, notified, "first build writes every page and must notify")

	require.FileExists(t, filepath.Join(".bookforge", "build-report.json"))

	store, err := history.Open(cfg.History.Path)
	require.NoError(t, err)
	defer store.Close()
	last, err := store.Last(context.Background())
	require.NoError(t, err)
	require.Equal(t, report.BuildID, last.BuildID)
}

func TestRebuilder_UnchangedRebuildSkipsNotify(t *testing.T) {
	rb, _ := newRebuilder(t)

	rb.Rebuild(context.Background(), "startup")

	var notified bool
	rb.notify = func() { notified = true }
	rb.Rebuild(context.Background(), "periodic")
	require.False(t, notified, "rebuild from unchanged content must not reload browsers")
}

func TestRebuilder_RebuildWaitsForBuildLock(t *testing.T) {
	rb, _ := newRebuilder(t)

	rb.mu.Lock()
	done := make(chan struct{})
	go func() {
		rb.Rebuild(context.Background(), "concurrent")
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("rebuild ran while the build lock was held")
	case <-time.After(100 * time.Millisecond):
	}

	rb.mu.Unlock()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("rebuild never ran after the lock was released")
	}
}

func TestRebuilder_ConfigReloadSharesBuildLock(t *testing.T) {
	rb, cfg := newRebuilder(t)
	originalTitle := cfg.Site.Title

	rb.mu.Lock()
	done := make(chan struct{})
	go func() {
		rb.ReloadConfig()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("configuration swap ran while a build held the lock")
	case <-time.After(100 * time.Millisecond):
	}
	require.Equal(t, originalTitle, cfg.Site.Title)

	rb.mu.Unlock()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("configuration reload never ran after the lock was released")
	}
}

package serve

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func siteDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte("<html><body><h1>Book</h1></body></html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "fig.png"),
		[]byte("png"), 0o644))
	return dir
}

func TestHealthz(t *testing.T) {
	s := NewServer(Options{OutputDir: siteDir(t)})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStaticServing_WithoutLiveReload(t *testing.T) {
	s := NewServer(Options{OutputDir: siteDir(t)})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	require.Contains(t, string(body), "<h1>Book</h1>")
	require.NotContains(t, string(body), "livereload")
}

func TestLiveReload_InjectsScriptIntoHTMLOnly(t *testing.T) {
	dir := siteDir(t)
	s := NewServer(Options{OutputDir: dir, LiveReload: true})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/index.html")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	require.Contains(t, string(body), "/livereload")
	// Injection happens before the closing body tag.
	require.Less(t,
		strings.Index(string(body), "/livereload"),
		strings.Index(string(body), "</body>"))

	// Assets pass through untouched.
	resp2, err := http.Get(ts.URL + "/assets/fig.png")
	require.NoError(t, err)
	defer resp2.Body.Close()
	asset, _ := io.ReadAll(resp2.Body)
	require.Equal(t, "png", string(asset))

	// On-disk files stay clean.
	onDisk, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	require.NotContains(t, string(onDisk), "livereload")
}

func TestStatus_IncludesProviderPayload(t *testing.T) {
	s := NewServer(Options{
		OutputDir: siteDir(t),
		Status: func(context.Context) (any, error) {
			return map[string]any{"outcome": "success", "pages": 3}, nil
		},
	})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	last, ok := payload["last_build"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "success", last["outcome"])
}

func TestMetrics_EnabledOnlyWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(Options{OutputDir: siteDir(t), Registry: reg})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	noMetrics := NewServer(Options{OutputDir: siteDir(t)})
	ts2 := httptest.NewServer(noMetrics.Handler())
	defer ts2.Close()

	resp2, err := http.Get(ts2.URL + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestReloadHub_BroadcastReachesSubscribers(t *testing.T) {
	hub := newReloadHub()
	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	hub.broadcast()
	select {
	case <-ch:
	default:
		t.Fatal("expected reload signal")
	}

	// A second broadcast while the buffer is full must not block.
	hub.broadcast()
	hub.broadcast()
}

package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusProvider reports the most recent build for the /status endpoint.
type StatusProvider func(ctx context.Context) (any, error)

// Options configures the preview server.
type Options struct {
	OutputDir  string
	Port       int
	LiveReload bool
	Registry   *prometheus.Registry // nil disables /metrics
	Status     StatusProvider       // nil disables /status details
}

// Server serves the generated site locally with live reload support.
type Server struct {
	opts Options
	hub  *reloadHub
}

// NewServer creates a preview server for the given options.
func NewServer(opts Options) *Server {
	return &Server{opts: opts, hub: newReloadHub()}
}

// NotifyReload broadcasts a reload event to connected browsers.
func (s *Server) NotifyReload() { s.hub.broadcast() }

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "ok")
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		payload := map[string]any{"serving": s.opts.OutputDir}
		if s.opts.Status != nil {
			if last, err := s.opts.Status(r.Context()); err == nil {
				payload["last_build"] = last
			} else {
				payload["last_build_error"] = err.Error()
			}
		}
		_ = json.NewEncoder(w).Encode(payload)
	})

	if s.opts.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{}))
	}

	if s.opts.LiveReload {
		mux.HandleFunc("/livereload", s.hub.handle)
		mux.Handle("/", s.injectingFileServer())
	} else {
		mux.Handle("/", http.FileServer(http.Dir(s.opts.OutputDir)))
	}

	return mux
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening", "port", s.opts.Port, "dir", s.opts.OutputDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

const reloadScript = `<script>
(function() {
  var es = new EventSource("/livereload");
  es.addEventListener("reload", function() { location.reload(); });
})();
</script>`

// injectingFileServer serves output files, appending the live reload script
// to HTML pages. Output files on disk are never modified.
func (s *Server) injectingFileServer() http.Handler {
	fileServer := http.FileServer(http.Dir(s.opts.OutputDir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if strings.HasSuffix(path, "/") {
			path += "index.html"
		}
		if !strings.HasSuffix(path, ".html") {
			fileServer.ServeHTTP(w, r)
			return
		}

		full := filepath.Join(s.opts.OutputDir, filepath.FromSlash(strings.TrimPrefix(path, "/")))
		content, err := os.ReadFile(full)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		html := string(content)
		if idx := strings.LastIndex(html, "</body>"); idx >= 0 {
			html = html[:idx] + reloadScript + html[idx:]
		} else {
			html += reloadScript
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	})
}

package config

import "strings"

// Config is the root site configuration loaded from book.yaml.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Output  OutputConfig  `yaml:"output"`
	Theme   ThemeConfig   `yaml:"theme,omitempty"`
	Serve   ServeConfig   `yaml:"serve,omitempty"`
	Publish PublishConfig `yaml:"publish,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
}

// SiteConfig holds site-wide metadata rendered into every page.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	Author      string `yaml:"author,omitempty"`
}

// ContentConfig locates the authored inputs.
type ContentConfig struct {
	Dir       string `yaml:"dir,omitempty"`        // chapter markdown root, default "chapters"
	AssetsDir string `yaml:"assets_dir,omitempty"` // image/diagram root, default "assets"
}

// OutputConfig controls where the generated site is written.
type OutputConfig struct {
	Dir   string `yaml:"dir,omitempty"` // default "site"
	Clean bool   `yaml:"clean,omitempty"`
}

// ThemeConfig holds presentation knobs consumed by the embedded templates.
type ThemeConfig struct {
	Math           bool   `yaml:"math,omitempty"`            // include client-side math rendering
	HighlightStyle string `yaml:"highlight_style,omitempty"` // code block style hint
	FooterText     string `yaml:"footer_text,omitempty"`
}

// ServeConfig configures the local preview server.
type ServeConfig struct {
	Port            int    `yaml:"port,omitempty"` // default 1313
	LiveReload      *bool  `yaml:"live_reload,omitempty"`
	Metrics         bool   `yaml:"metrics,omitempty"`
	RebuildInterval string `yaml:"rebuild_interval,omitempty"` // optional periodic full rebuild, e.g. "30m"
}

// LiveReloadEnabled reports the effective live reload setting (default on).
func (s ServeConfig) LiveReloadEnabled() bool {
	return s.LiveReload == nil || *s.LiveReload
}

// PublishConfig configures the publish command.
type PublishConfig struct {
	Branch  string `yaml:"branch,omitempty"` // default "gh-pages"
	Remote  string `yaml:"remote,omitempty"` // default "origin"
	Push    bool   `yaml:"push,omitempty"`
	Message string `yaml:"message,omitempty"`
}

// HistoryConfig locates the build history database.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"` // default ".bookforge/history.db"; "off" disables
}

// Enabled reports whether build history recording is active.
func (h HistoryConfig) Enabled() bool {
	return !strings.EqualFold(strings.TrimSpace(h.Path), "off")
}

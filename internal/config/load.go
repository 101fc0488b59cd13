package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
	// ErrConfigInvalid indicates the configuration file could not be parsed.
	ErrConfigInvalid = errors.New("invalid configuration")
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "BOOKFORGE_"

// Load reads, normalizes, and validates a configuration file.
//
// A .env file next to the configuration file is loaded first (if present),
// then BOOKFORGE_* environment variables override individual fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	// Best effort; a missing .env is not an error.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	applyEnvOverrides(cfg)

	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "BASE_URL"); v != "" {
		cfg.Site.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv(EnvPrefix + "PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.Serve.Port = p
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Content.Dir == "" {
		cfg.Content.Dir = "chapters"
	}
	if cfg.Content.AssetsDir == "" {
		cfg.Content.AssetsDir = "assets"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "site"
	}
	if cfg.Serve.Port <= 0 {
		cfg.Serve.Port = 1313
	}
	if cfg.Publish.Branch == "" {
		cfg.Publish.Branch = "gh-pages"
	}
	if cfg.Publish.Remote == "" {
		cfg.Publish.Remote = "origin"
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(".bookforge", "history.db")
	}
	if cfg.Site.BaseURL == "" {
		cfg.Site.BaseURL = "/"
	}
	if !strings.HasSuffix(cfg.Site.BaseURL, "/") {
		cfg.Site.BaseURL += "/"
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Site.Title) == "" {
		return fmt.Errorf("%w: site.title is required", ErrConfigInvalid)
	}
	if cfg.Serve.RebuildInterval != "" {
		if _, err := time.ParseDuration(cfg.Serve.RebuildInterval); err != nil {
			return fmt.Errorf("%w: serve.rebuild_interval: %v", ErrConfigInvalid, err)
		}
	}
	return nil
}

// RebuildInterval returns the parsed periodic rebuild interval, or zero when unset.
func (s ServeConfig) RebuildIntervalDuration() time.Duration {
	if s.RebuildInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(s.RebuildInterval)
	if err != nil {
		return 0
	}
	return d
}

const starterConfig = `site:
  title: "My Book"
  description: "A long-form book published as a static site"
  base_url: "/"

content:
  dir: chapters
  assets_dir: assets

output:
  dir: site
  clean: true

theme:
  math: true

serve:
  port: 1313
`

const starterChapter = `---
title: "Introduction"
weight: 1
---

# Introduction

Welcome to your new book. Edit this chapter under the chapters directory
and run ` + "`bookforge build`" + ` to generate the site.
`

// Init writes a starter configuration and a sample chapter.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	chapterDir := filepath.Join(filepath.Dir(path), "chapters")
	if err := os.MkdirAll(chapterDir, 0o755); err != nil {
		return fmt.Errorf("create chapters directory: %w", err)
	}
	samplePath := filepath.Join(chapterDir, "introduction.md")
	if _, err := os.Stat(samplePath); err == nil && !force {
		return nil
	}
	if err := os.WriteFile(samplePath, []byte(starterChapter), 0o644); err != nil {
		return fmt.Errorf("write sample chapter: %w", err)
	}
	return nil
}

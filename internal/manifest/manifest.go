package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Filename is the manifest's location inside the output directory.
const Filename = "manifest.json"

// Manifest records every emitted file and its content hash.
//
// The manifest is itself part of the output and must stay deterministic:
// no timestamps, no build ids, map keys serialize sorted. Rebuilding from
// unchanged content therefore reproduces the manifest byte for byte.
type Manifest struct {
	Pages   int               `json:"pages"`
	Assets  int               `json:"assets"`
	Entries map[string]string `json:"entries"` // output-relative path -> sha256 hex
}

// New creates an empty manifest.
func New() *Manifest {
	return &Manifest{Entries: make(map[string]string)}
}

// Record adds an emitted file's hash under its output-relative path.
func (m *Manifest) Record(relPath string, content []byte) {
	m.Entries[filepath.ToSlash(relPath)] = HashBytes(content)
}

// HashBytes returns the sha256 hex digest of content.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the sha256 hex digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Write serializes the manifest into the output directory.
func (m *Manifest) Write(outputDir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(filepath.Join(outputDir, Filename), data, 0o644)
}

// Load reads a manifest from the output directory. A missing manifest
// returns an empty one so first builds need no special casing.
func Load(outputDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, Filename))
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, err
	}
	m := New()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Entries == nil {
		m.Entries = make(map[string]string)
	}
	return m, nil
}

// Diff describes the difference between two manifests.
type Diff struct {
	Added   []string
	Changed []string
	Removed []string
}

// Compare returns the paths added, changed, and removed going from old to new.
// All slices are sorted.
func Compare(oldM, newM *Manifest) Diff {
	var d Diff
	for path, hash := range newM.Entries {
		oldHash, ok := oldM.Entries[path]
		switch {
		case !ok:
			d.Added = append(d.Added, path)
		case oldHash != hash:
			d.Changed = append(d.Changed, path)
		}
	}
	for path := range oldM.Entries {
		if _, ok := newM.Entries[path]; !ok {
			d.Removed = append(d.Removed, path)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Changed)
	sort.Strings(d.Removed)
	return d
}

// Empty reports whether the diff contains no differences.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

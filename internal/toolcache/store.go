// SPDX-License-Identifier: MPL-2.0

// Package toolcache stores installed runtime trees in a predictable
// on-disk layout and resolves version requests against them.
//
// The layout is one directory per (tool, version token, architecture):
//
//	<root>/<tool>/<token>/<arch>/        the installed tree
//	<root>/<tool>/<token>/<arch>.complete  completion marker + descriptor
//
// An entry without its completion marker does not exist as far as readers
// are concerned: Register writes the marker only after the tree is fully
// in place, so concurrent readers never observe a half-written install.
// Entries are append-only; nothing here ever deletes one.
package toolcache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"
)

// Installation is a resolved cache entry: the runtime version, where it
// lives on disk, and which stability channel it came from. Equality is
// structural; there is no identity beyond these fields.
type Installation struct {
	Version *semver.Version
	Path    string
	Stable  bool
}

// entryMeta is the TOML descriptor written into the completion marker.
type entryMeta struct {
	Version     string    `toml:"version"`
	Stable      bool      `toml:"stable"`
	Arch        string    `toml:"architecture"`
	InstalledAt time.Time `toml:"installed_at"`
}

// Store is the on-disk cache at a fixed root directory.
type Store struct {
	root string
}

// NewStore returns a Store rooted at dir. The directory is created lazily
// on first Register; reads against a missing root simply find nothing.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the cache root directory.
func (s *Store) Root() string { return s.root }

// Enumerate returns the raw version tokens installed under tool for the
// given architecture. Only complete entries (marker present, tree
// present) are reported. Enumerate never fails; unreadable directories
// yield an empty result.
func (s *Store) Enumerate(tool, arch string) []string {
	entries, err := os.ReadDir(filepath.Join(s.root, tool))
	if err != nil {
		return nil
	}

	var tokens []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, ok := s.ResolvePath(tool, e.Name(), arch); ok {
			tokens = append(tokens, e.Name())
		}
	}
	return tokens
}

// ResolvePath returns the absolute installation path for a cache token,
// or false when the entry is absent or incomplete.
func (s *Store) ResolvePath(tool, token, arch string) (string, bool) {
	markerPath := filepath.Join(s.root, tool, token, arch+".complete")
	if _, err := os.Stat(markerPath); err != nil {
		return "", false
	}

	dir := filepath.Join(s.root, tool, token, arch)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	return abs, true
}

// Register moves the tree at srcDir into the cache layout under
// (tool, version, arch) and marks the entry complete. It returns the
// final installation path. A pre-existing entry for the same key is
// replaced; installations for the same key are content-identical, so
// last-writer-wins on a race is acceptable.
func (s *Store) Register(tool string, v *semver.Version, stable bool, arch, srcDir string) (string, error) {
	token := EncodeVersion(v, stable)
	entryDir := filepath.Join(s.root, tool, token)
	destDir := filepath.Join(entryDir, arch)
	markerPath := filepath.Join(entryDir, arch+".complete")

	// Drop any stale marker first so a failed re-install below never
	// leaves a marker pointing at a half-replaced tree.
	if err := os.Remove(markerPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("removing stale marker: %w", err)
	}
	if err := os.RemoveAll(destDir); err != nil {
		return "", fmt.Errorf("clearing previous entry: %w", err)
	}
	if err := os.MkdirAll(entryDir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache entry directory: %w", err)
	}

	if err := moveTree(srcDir, destDir); err != nil {
		return "", fmt.Errorf("placing %s into cache: %w", tool, err)
	}

	meta := entryMeta{
		Version:     v.String(),
		Stable:      stable,
		Arch:        arch,
		InstalledAt: time.Now().UTC(),
	}
	if err := writeMarker(markerPath, meta); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(destDir)
	if err != nil {
		return "", fmt.Errorf("resolving cache path: %w", err)
	}
	return abs, nil
}

// Entry is an Installation together with the descriptor recorded at
// install time. Used for cache listings, not for resolution.
type Entry struct {
	Installation
	InstalledAt time.Time
}

// List returns every complete, decodable installation under tool for the
// given architecture. Corrupt tokens are skipped. The install timestamp
// comes from the entry descriptor and is zero when the marker predates
// descriptor-carrying markers.
func (s *Store) List(tool, arch string) []Entry {
	var entries []Entry
	for _, token := range s.Enumerate(tool, arch) {
		v, stable, err := DecodeVersion(token)
		if err != nil {
			continue
		}
		path, ok := s.ResolvePath(tool, token, arch)
		if !ok {
			continue
		}

		entry := Entry{Installation: Installation{Version: v, Path: path, Stable: stable}}
		if meta, metaErr := readMarker(filepath.Join(s.root, tool, token, arch+".complete")); metaErr == nil {
			entry.InstalledAt = meta.InstalledAt
		}
		entries = append(entries, entry)
	}
	return entries
}

// writeMarker writes the TOML entry descriptor as the completion marker.
func writeMarker(path string, meta entryMeta) error {
	data, err := toml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding entry descriptor: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing completion marker: %w", err)
	}
	return nil
}

// readMarker parses a completion marker back into its descriptor.
func readMarker(path string) (entryMeta, error) {
	var meta entryMeta
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, err
	}
	if err := toml.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("decoding entry descriptor: %w", err)
	}
	return meta, nil
}

// moveTree renames src to dest, falling back to a recursive copy when the
// rename crosses filesystems (temp dirs frequently live on a different
// mount than the cache root).
func moveTree(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	if err := copyTree(src, dest); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

// copyTree recursively copies a directory, preserving file modes and
// recreating symlinks (JDK trees on some platforms link jre/ internals).
func copyTree(src, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		switch {
		case info.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, linkErr := os.Readlink(path)
			if linkErr != nil {
				return linkErr
			}
			return os.Symlink(link, target)
		default:
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

func copyFile(src, dest string, perm os.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		// Read-only file handle; close errors are exotic.
		_ = in.Close()
	}()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

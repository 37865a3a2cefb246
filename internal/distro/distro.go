// SPDX-License-Identifier: MPL-2.0

// Package distro defines the per-vendor capability ports for resolving
// and installing runtime releases, and the shared plumbing the concrete
// vendor catalogs build on.
//
// A vendor contributes exactly two capabilities: resolve the best remote
// release for a normalized version spec, and install a resolved release
// into the local tool cache. Everything else (transport policy, retry,
// catalog wire formats) stays behind its Provider.
package distro

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"javaup-cli/internal/platform"
	"javaup-cli/internal/toolcache"
	"javaup-cli/internal/versionspec"
)

// Archive type tokens carried on a Release.
const (
	ArchiveTarGz = "tar.gz"
	ArchiveZip   = "zip"
)

// ErrNoMatchingRelease indicates the vendor catalog has no release
// satisfying the requested range for the target platform.
var ErrNoMatchingRelease = errors.New("no release satisfies the requested version")

type (
	// Query carries everything a provider needs to resolve or install:
	// the normalized version spec, the target platform, and the package
	// kind (jdk or jre).
	Query struct {
		Spec        versionspec.Spec
		Target      platform.Target
		PackageType string
	}

	// Release is a resolved remote release descriptor: immutable,
	// produced by Resolve, consumed once by Install.
	Release struct {
		Version *semver.Version
		Stable  bool
		// DownloadURL is the direct archive download location.
		DownloadURL string
		// Checksum is the hex SHA-256 of the archive when the catalog
		// publishes one; empty means no verification is possible.
		Checksum string
		// ArchiveType is ArchiveTarGz or ArchiveZip. Empty means infer
		// from the download URL.
		ArchiveType string
	}

	// Provider is the polymorphic port pair a vendor implements.
	Provider interface {
		// Name returns the distribution name as it appears in tool
		// folder names and CLI output (e.g. "Temurin").
		Name() string
		// Resolve returns the best release satisfying the query, or an
		// error on network or vendor-rejection failure.
		Resolve(ctx context.Context, q Query) (*Release, error)
		// Install downloads, extracts, and registers the release in the
		// local cache, returning the final installation.
		Install(ctx context.Context, q Query, release *Release) (*toolcache.Installation, error)
	}

	// Registry selects a Provider by distribution name at construction
	// time.
	Registry struct {
		providers map[string]Provider
	}
)

// Registrar is the write surface of the tool cache that installation
// needs. *toolcache.Store implements it.
type Registrar interface {
	Register(tool string, v *semver.Version, stable bool, arch, srcDir string) (string, error)
}

// ToolFolder returns the deterministic cache folder name for a
// (distribution, package kind) pair, e.g. "Java_Temurin_jdk".
func ToolFolder(distribution, packageType string) string {
	return fmt.Sprintf("Java_%s_%s", distribution, packageType)
}

// NewRegistry builds a Registry over the given providers. Lookup is
// case-insensitive on the distribution name.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[strings.ToLower(p.Name())] = p
	}
	return r
}

// Lookup returns the provider for a distribution name. Unknown names are
// an error listing the known distributions.
func (r *Registry) Lookup(name string) (Provider, error) {
	p, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown distribution %q (known: %s)", name, strings.Join(r.Names(), ", "))
	}
	return p, nil
}

// Names returns the registered distribution names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}

// StatusError is a transport-level HTTP failure from a vendor catalog.
// It preserves the status code for diagnostic classification.
type StatusError struct {
	StatusCode int
	URL        string
	Message    string
}

// Error formats the failure with its status code and request URL.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

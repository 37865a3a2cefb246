// SPDX-License-Identifier: MPL-2.0

// Package setup orchestrates one runtime resolution attempt: cache
// lookup, remote resolution, installation, platform path correction, and
// environment publication.
package setup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"javaup-cli/internal/diagnose"
	"javaup-cli/internal/distro"
	"javaup-cli/internal/hostenv"
	"javaup-cli/internal/platform"
	"javaup-cli/internal/toolcache"
	"javaup-cli/internal/versionspec"
)

// DefaultPackageType is used when a request does not name one.
const DefaultPackageType = "jdk"

//nolint:gochecknoglobals // Test seam for runtime.GOOS.
var currentGOOS = runtime.GOOS

type (
	// Request captures one resolution attempt's inputs as an immutable
	// value.
	Request struct {
		// Version is the raw user-provided version token.
		Version string
		// Distribution names the vendor catalog (e.g. "temurin").
		Distribution string
		// Arch is the requested architecture; empty means the host's.
		// Common aliases are normalized; unknown values pass through.
		Arch string
		// PackageType is "jdk" or "jre"; empty means jdk.
		PackageType string
		// CheckLatest forces a remote freshness check even on a cache hit.
		CheckLatest bool
	}

	// Orchestrator drives the resolution workflow. It owns exactly one
	// resolution attempt at a time and keeps no state across runs.
	Orchestrator struct {
		store     toolcache.Reader
		registry  *distro.Registry
		publisher hostenv.Publisher
		log       *log.Logger
	}
)

// New wires an Orchestrator from its collaborators.
func New(store toolcache.Reader, registry *distro.Registry, publisher hostenv.Publisher, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		registry:  registry,
		publisher: publisher,
		log:       logger,
	}
}

// Run resolves and materializes the requested runtime, returning the
// final installation. A cache hit without a freshness check never
// touches the network. Remote failures are classified for diagnostics
// and propagated unchanged.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*toolcache.Installation, error) {
	spec, err := versionspec.Normalize(req.Version)
	if err != nil {
		return nil, err
	}

	provider, err := o.registry.Lookup(req.Distribution)
	if err != nil {
		return nil, err
	}

	arch := req.Arch
	if arch == "" {
		arch = runtime.GOARCH
	}
	arch = platform.NormalizeArch(arch)

	packageType := req.PackageType
	if packageType == "" {
		packageType = DefaultPackageType
	}

	tool := distro.ToolFolder(provider.Name(), packageType)

	cached, haveCached := toolcache.FindBest(o.store, tool, arch, spec)

	var result toolcache.Installation
	switch {
	case haveCached && !req.CheckLatest:
		// Deliberate short-circuit: a satisfying cached runtime means no
		// network traffic at all.
		o.log.Debug("resolved from tool cache", "tool", tool, "version", cached.Version, "path", cached.Path)
		result = cached

	default:
		query := distro.Query{
			Spec:        spec,
			Target:      platform.Target{OS: currentGOOS, Arch: arch},
			PackageType: packageType,
		}

		release, resolveErr := provider.Resolve(ctx, query)
		if resolveErr != nil {
			o.reportFailure("resolving remote release", resolveErr)
			return nil, resolveErr
		}

		if haveCached && versionspec.Compare(release.Version, cached.Version) == 0 {
			// Remote agrees with what we already have; reuse the cached
			// tree without downloading.
			o.log.Debug("cached installation is current", "version", cached.Version)
			result = cached
		} else {
			installed, installErr := provider.Install(ctx, query, release)
			if installErr != nil {
				o.reportFailure("installing release", installErr)
				return nil, installErr
			}
			result = *installed
		}
	}

	result.Path = correctInstallPath(result.Path)

	o.publish(provider.Name(), arch, result)

	return &result, nil
}

// reportFailure logs the diagnostic classification of a remote failure.
// The original error is always propagated unchanged by the caller;
// classification is a side channel only.
func (o *Orchestrator) reportFailure(op string, err error) {
	report := diagnose.Classify(err)
	o.log.Error(op+" failed", "diagnosis", report.String())
}

// correctInstallPath applies the macOS bundle-layout fixup: installers
// there place the runtime home under Contents/Home inside the top
// directory. The check is filesystem-based, not name-based.
func correctInstallPath(path string) string {
	if currentGOOS != platform.Darwin {
		return path
	}

	nested := filepath.Join(path, "Contents", "Home")
	if info, err := os.Stat(nested); err == nil && info.IsDir() {
		return nested
	}
	return path
}

// publish emits the environment bindings and step outputs for a
// successful resolution. Side effects only; all operations are
// idempotent.
func (o *Orchestrator) publish(distribution, arch string, inst toolcache.Installation) {
	o.publisher.SetVariable("JAVA_HOME", inst.Path)
	o.publisher.PrependPath(filepath.Join(inst.Path, "bin"))

	o.publisher.SetOutput("distribution", distribution)
	o.publisher.SetOutput("path", inst.Path)
	o.publisher.SetOutput("version", inst.Version.String())

	scoped := fmt.Sprintf("JAVA_HOME_%d_%s", inst.Version.Major(), strings.ToUpper(arch))
	o.publisher.SetVariable(scoped, inst.Path)
}

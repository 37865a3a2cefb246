// SPDX-License-Identifier: MPL-2.0

package toolcache

import (
	"slices"

	"javaup-cli/internal/versionspec"
)

// Reader is the read surface of the cache store that resolution needs.
// Store implements it; tests substitute fakes to simulate corruption.
type Reader interface {
	// Enumerate returns the raw on-disk version tokens for (tool, arch).
	Enumerate(tool, arch string) []string
	// ResolvePath returns the installation path for a token, or false
	// when the entry is absent or incomplete.
	ResolvePath(tool, token, arch string) (string, bool)
}

// FindBest selects the highest cached installation satisfying spec, or
// false when nothing matches. A pure read: absence is a normal outcome,
// never an error. Entries whose tokens do not decode, whose stability
// channel differs from the request, or whose path no longer resolves are
// skipped.
func FindBest(store Reader, tool, arch string, spec versionspec.Spec) (Installation, bool) {
	var candidates []Installation

	for _, token := range store.Enumerate(tool, arch) {
		v, stable, err := DecodeVersion(token)
		if err != nil {
			// Corrupt token; skip rather than escalate.
			continue
		}
		if stable != spec.Stable {
			continue
		}
		if !spec.Matches(v) {
			continue
		}

		path, ok := store.ResolvePath(tool, token, arch)
		if !ok {
			continue
		}

		candidates = append(candidates, Installation{Version: v, Path: path, Stable: stable})
	}

	if len(candidates) == 0 {
		return Installation{}, false
	}

	// Highest first, with build metadata participating in the tie-break
	// so 17.0.0+10 outranks 17.0.0+2.
	slices.SortFunc(candidates, func(a, b Installation) int {
		return versionspec.Compare(b.Version, a.Version)
	})

	return candidates[0], true
}

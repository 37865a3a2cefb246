// SPDX-License-Identifier: MPL-2.0

// Package versionspec parses user-provided runtime version tokens into
// canonical semantic-version ranges with a stability dimension.
//
// Early-access (EA) releases are encoded in canonical semver as build
// metadata ("11.0.3+2"), but users request them with the textual markers
// the distribution channels advertise ("11.0.3-ea", "11.0.3-ea.2").
// Normalize performs that rewrite once per invocation; everything
// downstream works with the canonical form.
package versionspec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	// eaSuffix marks an early-access request without a build number.
	eaSuffix = "-ea"

	// eaBuildMarker separates an early-access request from its build number.
	eaBuildMarker = "-ea."
)

// ErrInvalidSpec indicates the provided version token does not normalize
// to a valid semantic-version range.
var ErrInvalidSpec = errors.New("invalid version specification")

type (
	// Spec is a normalized version request: a validated semantic-version
	// range plus the stability channel it targets. Immutable after
	// construction via Normalize.
	Spec struct {
		// Raw is the original user input, preserved for error reporting.
		Raw string
		// Range is the canonical range string after EA-marker rewriting.
		Range string
		// Constraint is the parsed form of Range.
		Constraint *semver.Constraints
		// Stable is false when the request targets the early-access channel.
		Stable bool
	}

	// InvalidSpecError reports a version token that failed range
	// validation. It wraps ErrInvalidSpec so callers can use errors.Is.
	InvalidSpecError struct {
		Raw   string
		Cause error
	}
)

// Error returns a human-readable description carrying the original token.
func (e *InvalidSpecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid version specification %q: %v", e.Raw, e.Cause)
	}
	return fmt.Sprintf("invalid version specification %q", e.Raw)
}

// Unwrap returns ErrInvalidSpec so callers can use errors.Is.
func (e *InvalidSpecError) Unwrap() error { return ErrInvalidSpec }

// Normalize parses raw into a Spec. The EA markers are rewritten to
// canonical build-metadata form before range validation:
//
//	"11.0.3-ea"   -> range "11.0.3",   early-access
//	"11.0.3-ea.2" -> range "11.0.3+2", early-access
//	"17"          -> range "17",       stable
func Normalize(raw string) (Spec, error) {
	trimmed := strings.TrimSpace(raw)

	rangeStr := trimmed
	stable := true

	switch {
	case strings.HasSuffix(trimmed, eaSuffix):
		rangeStr = strings.TrimSuffix(trimmed, eaSuffix)
		stable = false
	case strings.Contains(trimmed, eaBuildMarker):
		rangeStr = strings.Replace(trimmed, eaBuildMarker, "+", 1)
		stable = false
	}

	constraint, err := semver.NewConstraint(rangeStr)
	if err != nil {
		return Spec{}, &InvalidSpecError{Raw: raw, Cause: err}
	}

	return Spec{
		Raw:        raw,
		Range:      rangeStr,
		Constraint: constraint,
		Stable:     stable,
	}, nil
}

// Matches reports whether version satisfies the spec's range.
func (s Spec) Matches(version *semver.Version) bool {
	return s.Constraint.Check(version)
}

// Major returns the feature version the range opens with ("17", "17.x",
// "11.0.3" all yield the leading number) and false when the range does
// not start with one. Catalog clients use it to bound server-side
// listings; selection still happens client-side against the full range.
func (s Spec) Major() (uint64, bool) {
	i := 0
	for i < len(s.Range) && s.Range[i] >= '0' && s.Range[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	major, err := strconv.ParseUint(s.Range[:i], 10, 64)
	if err != nil {
		return 0, false
	}
	return major, true
}

// Compare orders two versions with build metadata participating in the
// tie-break. Semantic-version precedence deliberately ignores build
// metadata, but early-access builds of the same base version differ only
// in metadata ("17.0.0+2" vs "17.0.0+10"), so selection needs the extra
// dimension: numeric metadata parts compare numerically, everything else
// lexically, and absent metadata sorts lowest.
func Compare(a, b *semver.Version) int {
	if c := a.Compare(b); c != 0 {
		return c
	}
	return compareMetadata(a.Metadata(), b.Metadata())
}

// compareMetadata compares dotted build-metadata strings part by part.
func compareMetadata(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}

	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		if c := compareMetadataPart(aParts[i], bParts[i]); c != 0 {
			return c
		}
	}

	// All shared parts equal; the longer metadata ranks higher.
	switch {
	case len(aParts) < len(bParts):
		return -1
	case len(aParts) > len(bParts):
		return 1
	}
	return 0
}

// compareMetadataPart compares a single metadata segment, numerically when
// both sides are numeric so that "10" ranks above "2".
func compareMetadataPart(a, b string) int {
	aNum, aErr := strconv.Atoi(a)
	bNum, bErr := strconv.Atoi(b)

	if aErr == nil && bErr == nil {
		switch {
		case aNum < bNum:
			return -1
		case aNum > bNum:
			return 1
		}
		return 0
	}

	return strings.Compare(a, b)
}

// SPDX-License-Identifier: MPL-2.0

package toolcache

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// On-disk version tokens cannot contain "+" (build-metadata separator):
// it is unsafe in path segments on some platforms and tooling. The token
// encoding substitutes it reversibly:
//
//	stable  11.0.3+7  <->  11.0.3-7
//	EA      17.0.0+1  <->  17.0.0-ea.1
//	EA      17.0.0    <->  17.0.0-ea
//
// EncodeVersion and DecodeVersion must remain exact inverses of each
// other; the cache is unreadable otherwise. The scheme assumes a stable
// version never legitimately contains a "-ea" substring of its own; that
// is a precondition of the on-disk naming convention, not something
// enforced here.
const (
	eaSuffix      = "-ea"
	eaBuildMarker = "-ea."
)

// EncodeVersion renders a version and its stability channel as a
// filesystem-safe cache token.
func EncodeVersion(v *semver.Version, stable bool) string {
	s := v.String()

	if !stable {
		if strings.Contains(s, "+") {
			return strings.Replace(s, "+", eaBuildMarker, 1)
		}
		return s + eaSuffix
	}

	return strings.Replace(s, "+", "-", 1)
}

// DecodeVersion reconstructs the version and stability channel from an
// on-disk cache token. Returns an error when the decoded string is not a
// valid semantic version, which callers treat as a corrupt entry to skip.
func DecodeVersion(token string) (*semver.Version, bool, error) {
	var (
		s      string
		stable bool
	)

	switch {
	case strings.Contains(token, eaBuildMarker):
		s = strings.Replace(token, eaBuildMarker, "+", 1)
	case strings.HasSuffix(token, eaSuffix):
		s = strings.TrimSuffix(token, eaSuffix)
	default:
		s = strings.Replace(token, "-", "+", 1)
		stable = true
	}

	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, false, err
	}

	return v, stable, nil
}

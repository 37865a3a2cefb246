// SPDX-License-Identifier: MPL-2.0

// Package platform normalizes host OS and architecture identifiers into
// the tokens runtime distribution catalogs understand.
package platform

import "runtime"

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// Target identifies the (os, architecture) pair a runtime build is
// resolved and installed for. Arch holds the normalized distribution-facing
// token (x64, x86, aarch64, ...), not the Go or Node spelling.
type Target struct {
	OS   string
	Arch string
}

// archAliases maps common architecture spellings (Go's GOARCH values and
// the Node-style names CI configurations tend to carry over) to the tokens
// distribution catalogs use. Unrecognized values pass through unchanged.
var archAliases = map[string]string{
	"amd64": "x64",
	"x64":   "x64",
	"386":   "x86",
	"ia32":  "x86",
	"arm64": "aarch64",
}

// NormalizeArch maps an architecture alias to its distribution-facing
// token. Values without a known alias are returned unchanged so that
// explicitly requested exotic architectures still reach the catalog query.
func NormalizeArch(arch string) string {
	if normalized, ok := archAliases[arch]; ok {
		return normalized
	}
	return arch
}

// HostTarget returns the Target for the current process, with the
// architecture already normalized.
func HostTarget() Target {
	return Target{
		OS:   runtime.GOOS,
		Arch: NormalizeArch(runtime.GOARCH),
	}
}

// CatalogOS translates a GOOS value into the OS token the vendor catalogs
// use. The only divergence is macOS, which catalogs call "mac".
func CatalogOS(goos string) string {
	if goos == Darwin {
		return "mac"
	}
	return goos
}

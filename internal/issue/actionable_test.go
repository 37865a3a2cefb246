// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableErrorMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, "resolve runtime version").WithResource("temurin 17")

	want := "failed to resolve runtime version: temurin 17: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "anything") != nil {
		t.Error("Wrap(nil) != nil")
	}
}

func TestFormatSuggestions(t *testing.T) {
	err := Wrap(errors.New("no release satisfies the requested version"), "resolve runtime version").
		WithSuggestion("Check the requested version exists for this distribution").
		WithSuggestion("Try another distribution with --distribution")

	out := err.Format(false)
	if !strings.Contains(out, "• Check the requested version") {
		t.Errorf("Format missing suggestion bullet: %q", out)
	}
	if strings.Contains(out, "Error chain") {
		t.Errorf("non-verbose Format includes error chain: %q", out)
	}
}

func TestFormatVerboseChain(t *testing.T) {
	inner := errors.New("dial tcp: timeout")
	err := Wrap(Wrap(inner, "query catalog"), "resolve runtime version")

	out := err.Format(true)
	if !strings.Contains(out, "Error chain:") {
		t.Errorf("verbose Format missing chain: %q", out)
	}
	if !strings.Contains(out, "dial tcp: timeout") {
		t.Errorf("verbose Format missing root cause: %q", out)
	}
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"javaup-cli/internal/distro"
	"javaup-cli/internal/hostenv"
	"javaup-cli/internal/platform"
	"javaup-cli/internal/setup"
	"javaup-cli/internal/toolcache"
	"javaup-cli/internal/versionspec"
)

// cacheOnlyProvider satisfies the registry for cache-hit flows; any
// remote call is a test failure.
type cacheOnlyProvider struct {
	t *testing.T
}

func (p cacheOnlyProvider) Name() string { return "Temurin" }

func (p cacheOnlyProvider) Resolve(_ context.Context, _ distro.Query) (*distro.Release, error) {
	p.t.Error("unexpected remote resolve on a cache hit")
	return nil, distro.ErrNoMatchingRelease
}

func (p cacheOnlyProvider) Install(_ context.Context, _ distro.Query, _ *distro.Release) (*toolcache.Installation, error) {
	p.t.Error("unexpected install on a cache hit")
	return nil, distro.ErrNoMatchingRelease
}

func TestRunSetupReportsInstallation(t *testing.T) {
	arch := platform.NormalizeArch(runtime.GOARCH)
	store := toolcache.NewStore(t.TempDir())

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "release"), []byte("JAVA_VERSION=17"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	installPath, err := store.Register("Java_Temurin_jdk", semver.MustParse("17.0.2+8"), true, arch, src)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	orch := setup.New(store, distro.NewRegistry(cacheOnlyProvider{t: t}), hostenv.NewRecorder(), log.New(io.Discard))

	var out bytes.Buffer
	p := setupParams{
		stdout:       &out,
		stderr:       io.Discard,
		orchestrator: orch,
		request:      setup.Request{Version: "17", Distribution: "temurin"},
	}

	if err := runSetup(context.Background(), p); err != nil {
		t.Fatalf("runSetup: %v", err)
	}
	if !strings.Contains(out.String(), "Java 17.0.2+8 (temurin) ready") {
		t.Errorf("output %q lacks the readiness line", out.String())
	}
	if !strings.Contains(out.String(), installPath) {
		t.Errorf("output %q lacks the installation path", out.String())
	}
}

func TestClassifySetupExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "invalid version spec is user-correctable",
			err:  fmt.Errorf("normalizing: %w", versionspec.ErrInvalidSpec),
			want: 1,
		},
		{
			name: "no matching release is user-correctable",
			err:  fmt.Errorf("resolving: %w", distro.ErrNoMatchingRelease),
			want: 1,
		},
		{
			name: "transport failure is unexpected",
			err:  errors.New("connection reset"),
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifySetupExitCode(tt.err); got != tt.want {
				t.Errorf("classifySetupExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatSetupError(t *testing.T) {
	t.Run("invalid spec suggests range syntax", func(t *testing.T) {
		err := &versionspec.InvalidSpecError{Raw: "banana"}
		msg := formatSetupError(err)
		if !strings.Contains(msg, "banana") || !strings.Contains(msg, "17, 11.0.3") {
			t.Errorf("message %q lacks the raw spec or syntax hint", msg)
		}
	})

	t.Run("no matching release suggests another distribution", func(t *testing.T) {
		err := fmt.Errorf("%w: Temurin 99 for linux/x64", distro.ErrNoMatchingRelease)
		msg := formatSetupError(err)
		if !strings.Contains(msg, "--distribution zulu") {
			t.Errorf("message %q lacks the distribution hint", msg)
		}
	})

	t.Run("rate limit suggests waiting", func(t *testing.T) {
		err := &distro.StatusError{StatusCode: 429, URL: "https://api.adoptium.net/v3"}
		msg := formatSetupError(err)
		if !strings.Contains(msg, "rate limiting") {
			t.Errorf("message %q lacks the rate limit hint", msg)
		}
	})

	t.Run("unclassified errors pass through", func(t *testing.T) {
		err := errors.New("something odd")
		if got := formatSetupError(err); got != "something odd" {
			t.Errorf("formatSetupError() = %q, want the bare message", got)
		}
	})
}

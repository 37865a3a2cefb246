// SPDX-License-Identifier: MPL-2.0

package distro

import (
	"context"
	"strings"
	"testing"

	"javaup-cli/internal/toolcache"
)

type stubProvider struct {
	name string
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Resolve(_ context.Context, _ Query) (*Release, error) {
	return nil, ErrNoMatchingRelease
}

func (p *stubProvider) Install(_ context.Context, _ Query, _ *Release) (*toolcache.Installation, error) {
	return nil, ErrNoMatchingRelease
}

func TestToolFolder(t *testing.T) {
	tests := []struct {
		distribution string
		packageType  string
		want         string
	}{
		{distribution: "Temurin", packageType: "jdk", want: "Java_Temurin_jdk"},
		{distribution: "Zulu", packageType: "jre", want: "Java_Zulu_jre"},
	}

	for _, tt := range tests {
		if got := ToolFolder(tt.distribution, tt.packageType); got != tt.want {
			t.Errorf("ToolFolder(%q, %q) = %q, want %q", tt.distribution, tt.packageType, got, tt.want)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	temurin := &stubProvider{name: "Temurin"}
	zulu := &stubProvider{name: "Zulu"}
	registry := NewRegistry(temurin, zulu)

	for _, name := range []string{"Temurin", "temurin", "TEMURIN"} {
		p, err := registry.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if p != Provider(temurin) {
			t.Errorf("Lookup(%q) returned %q", name, p.Name())
		}
	}
}

func TestRegistryLookupUnknown(t *testing.T) {
	registry := NewRegistry(&stubProvider{name: "Temurin"}, &stubProvider{name: "Zulu"})

	_, err := registry.Lookup("corretto")
	if err == nil {
		t.Fatal("expected error for unknown distribution")
	}
	if !strings.Contains(err.Error(), "Temurin, Zulu") {
		t.Errorf("error %q does not list known distributions", err)
	}
}

func TestRegistryNames(t *testing.T) {
	registry := NewRegistry(&stubProvider{name: "Zulu"}, &stubProvider{name: "Temurin"})

	names := registry.Names()
	if len(names) != 2 || names[0] != "Temurin" || names[1] != "Zulu" {
		t.Errorf("Names() = %v, want sorted [Temurin Zulu]", names)
	}
}

func TestStatusErrorFormat(t *testing.T) {
	err := &StatusError{StatusCode: 403, URL: "https://api.example/v3"}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "https://api.example/v3") {
		t.Errorf("Error() = %q, want status and URL", err.Error())
	}

	withMsg := &StatusError{StatusCode: 429, URL: "https://api.example/v3", Message: "slow down"}
	if !strings.Contains(withMsg.Error(), "slow down") {
		t.Errorf("Error() = %q, want message included", withMsg.Error())
	}
}

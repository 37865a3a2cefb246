// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Point the default search at an empty directory so no developer
	// config leaks into the test.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("RUNNER_TOOL_CACHE", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Distribution != "temurin" {
		t.Errorf("Distribution = %q, want temurin", cfg.Distribution)
	}
	if cfg.PackageType != "jdk" {
		t.Errorf("PackageType = %q, want jdk", cfg.PackageType)
	}
	if cfg.CacheDir == "" {
		t.Error("CacheDir is empty")
	}
	if cfg.Verbose {
		t.Error("Verbose defaults to true")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
cache_dir = "/opt/javaup-cache"
distribution = "zulu"
verbose = true

[endpoints]
temurin = "http://localhost:9000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.CacheDir != "/opt/javaup-cache" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.Distribution != "zulu" {
		t.Errorf("Distribution = %q", cfg.Distribution)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
	if cfg.Endpoints.Temurin != "http://localhost:9000" {
		t.Errorf("Endpoints.Temurin = %q", cfg.Endpoints.Temurin)
	}
	// Unset keys keep their defaults.
	if cfg.PackageType != "jdk" {
		t.Errorf("PackageType = %q, want default jdk", cfg.PackageType)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load succeeded for a missing explicit config file")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("JAVAUP_DISTRIBUTION", "zulu")
	t.Setenv("JAVAUP_CACHE_DIR", "/tmp/env-cache")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Distribution != "zulu" {
		t.Errorf("Distribution = %q, want env override zulu", cfg.Distribution)
	}
	if cfg.CacheDir != "/tmp/env-cache" {
		t.Errorf("CacheDir = %q, want env override", cfg.CacheDir)
	}
}

func TestDefaultCacheDirPrefersRunnerToolCache(t *testing.T) {
	t.Setenv("RUNNER_TOOL_CACHE", "/opt/hostedtoolcache")

	if got := defaultCacheDir(); got != "/opt/hostedtoolcache" {
		t.Errorf("defaultCacheDir = %q, want /opt/hostedtoolcache", got)
	}
}

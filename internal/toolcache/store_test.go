// SPDX-License-Identifier: MPL-2.0

package toolcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
)

// seedTree creates a minimal runtime tree to register, with a bin/java
// marker file so tests can verify the tree moved intact.
func seedTree(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0o755); err != nil {
		t.Fatalf("creating seed tree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bin", "java"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("writing seed binary: %v", err)
	}
	return dir
}

func TestStoreRegisterAndResolve(t *testing.T) {
	store := NewStore(t.TempDir())
	v := semver.MustParse("11.0.3+7")

	path, err := store.Register("Java_Temurin_jdk", v, true, "x64", seedTree(t))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, statErr := os.Stat(filepath.Join(path, "bin", "java")); statErr != nil {
		t.Errorf("registered tree missing bin/java: %v", statErr)
	}

	resolved, ok := store.ResolvePath("Java_Temurin_jdk", "11.0.3-7", "x64")
	if !ok {
		t.Fatal("ResolvePath did not find the registered entry")
	}
	if resolved != path {
		t.Errorf("ResolvePath = %q, Register returned %q", resolved, path)
	}

	tokens := store.Enumerate("Java_Temurin_jdk", "x64")
	if len(tokens) != 1 || tokens[0] != "11.0.3-7" {
		t.Errorf("Enumerate = %v, want [11.0.3-7]", tokens)
	}
}

func TestStoreEnumerateIgnoresIncompleteEntries(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	// A tree without its completion marker: a crashed install.
	if err := os.MkdirAll(filepath.Join(root, "Java_Temurin_jdk", "11.0.9", "x64"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if tokens := store.Enumerate("Java_Temurin_jdk", "x64"); len(tokens) != 0 {
		t.Errorf("Enumerate reported incomplete entry: %v", tokens)
	}
	if _, ok := store.ResolvePath("Java_Temurin_jdk", "11.0.9", "x64"); ok {
		t.Error("ResolvePath resolved an incomplete entry")
	}
}

func TestStoreEnumerateMissingRoot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "does-not-exist"))

	if tokens := store.Enumerate("Java_Temurin_jdk", "x64"); tokens != nil {
		t.Errorf("Enumerate on missing root = %v, want nil", tokens)
	}
}

func TestStoreEnumerateIsArchScoped(t *testing.T) {
	store := NewStore(t.TempDir())
	v := semver.MustParse("17.0.1")

	if _, err := store.Register("Java_Temurin_jdk", v, true, "x64", seedTree(t)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if tokens := store.Enumerate("Java_Temurin_jdk", "aarch64"); len(tokens) != 0 {
		t.Errorf("Enumerate for other arch = %v, want empty", tokens)
	}
}

func TestStoreRegisterReplacesExistingEntry(t *testing.T) {
	store := NewStore(t.TempDir())
	v := semver.MustParse("17.0.1")

	first, err := store.Register("Java_Temurin_jdk", v, true, "x64", seedTree(t))
	if err != nil {
		t.Fatalf("first Register: %v", err)
	}

	// Re-register the same key with a fresh tree; last writer wins.
	second, err := store.Register("Java_Temurin_jdk", v, true, "x64", seedTree(t))
	if err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if first != second {
		t.Errorf("re-register changed the path: %q vs %q", first, second)
	}
	if _, statErr := os.Stat(filepath.Join(second, "bin", "java")); statErr != nil {
		t.Errorf("replaced tree missing bin/java: %v", statErr)
	}
}

func TestStoreList(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := store.Register("Java_Temurin_jdk", semver.MustParse("11.0.3"), true, "x64", seedTree(t)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := store.Register("Java_Temurin_jdk", semver.MustParse("17.0.0+1"), false, "x64", seedTree(t)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	entries := store.List("Java_Temurin_jdk", "x64")
	if len(entries) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(entries))
	}

	for _, e := range entries {
		if e.InstalledAt.IsZero() {
			t.Errorf("entry %s has zero InstalledAt", e.Version)
		}
		if e.Path == "" {
			t.Errorf("entry %s has empty path", e.Version)
		}
	}
}

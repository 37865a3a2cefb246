// SPDX-License-Identifier: MPL-2.0

package distro

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.tar.gz")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestVerifyFile(t *testing.T) {
	// SHA-256 of "hello world".
	const helloHash = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

	path := writeTempFile(t, "hello world")

	t.Run("matching hash", func(t *testing.T) {
		if err := VerifyFile(path, helloHash); err != nil {
			t.Errorf("VerifyFile: %v", err)
		}
	})

	t.Run("matching hash is case-insensitive", func(t *testing.T) {
		if err := VerifyFile(path, strings.ToUpper(helloHash)); err != nil {
			t.Errorf("VerifyFile: %v", err)
		}
	})

	t.Run("mismatch reports both hashes", func(t *testing.T) {
		err := VerifyFile(path, strings.Repeat("0", 64))
		if !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("error = %v, want ErrChecksumMismatch", err)
		}

		var checksumErr *ChecksumError
		if !errors.As(err, &checksumErr) {
			t.Fatalf("error = %v, want *ChecksumError", err)
		}
		if checksumErr.Got != helloHash {
			t.Errorf("Got = %q, want %q", checksumErr.Got, helloHash)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if err := VerifyFile(filepath.Join(t.TempDir(), "absent"), helloHash); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestComputeFileHash(t *testing.T) {
	path := writeTempFile(t, "hello world")

	got, err := ComputeFileHash(path)
	if err != nil {
		t.Fatalf("ComputeFileHash: %v", err)
	}
	if got != "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9" {
		t.Errorf("hash = %q", got)
	}
}

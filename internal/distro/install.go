// SPDX-License-Identifier: MPL-2.0

package distro

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"javaup-cli/internal/toolcache"
)

const (
	// maxArchiveBytes caps the total bytes extracted from one archive
	// (2 GB). Prevents decompression bombs; real JDK trees stay well
	// under this.
	maxArchiveBytes = 2 << 30

	// maxEntryBytes caps a single extracted file (1 GB).
	maxEntryBytes = 1 << 30
)

// ErrUnsafeArchivePath indicates an archive entry would escape the
// extraction directory.
var ErrUnsafeArchivePath = errors.New("archive entry escapes extraction directory")

// Installer is the shared download/verify/extract/register pipeline the
// vendor providers embed. Vendors only contribute resolution; the
// mechanics of turning a Release into a cached installation are common.
type Installer struct {
	HTTPClient *http.Client
	Store      Registrar
	UserAgent  string
	Log        *log.Logger
}

// InstallArchive downloads the release archive, verifies it when a
// checksum is available, extracts it, and registers the tree in the
// cache under the given tool folder. The returned Installation points at
// the final cache path.
func (in *Installer) InstallArchive(ctx context.Context, tool string, release *Release, arch string) (*toolcache.Installation, error) {
	workDir, err := os.MkdirTemp("", "javaup-install-*")
	if err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	in.logf("downloading runtime archive", "url", release.DownloadURL, "version", release.Version)

	archivePath, err := in.download(ctx, release.DownloadURL, workDir)
	if err != nil {
		return nil, fmt.Errorf("downloading archive: %w", err)
	}

	if release.Checksum != "" {
		if err := VerifyFile(archivePath, release.Checksum); err != nil {
			return nil, fmt.Errorf("verifying archive: %w", err)
		}
	}

	extractDir := filepath.Join(workDir, "extracted")
	if err := os.Mkdir(extractDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating extraction directory: %w", err)
	}

	switch archiveType(release) {
	case ArchiveZip:
		err = extractZip(archivePath, extractDir)
	default:
		err = extractTarGz(archivePath, extractDir)
	}
	if err != nil {
		return nil, fmt.Errorf("extracting archive: %w", err)
	}

	// Runtime archives conventionally wrap everything in one top-level
	// directory (jdk-17.0.1+12/...); collapse it so the cached tree is
	// the runtime home itself.
	root, err := collapseSingleDir(extractDir)
	if err != nil {
		return nil, err
	}

	path, err := in.Store.Register(tool, release.Version, release.Stable, arch, root)
	if err != nil {
		return nil, fmt.Errorf("registering in tool cache: %w", err)
	}

	in.logf("runtime installed", "tool", tool, "version", release.Version, "path", path)

	return &toolcache.Installation{
		Version: release.Version,
		Path:    path,
		Stable:  release.Stable,
	}, nil
}

// download fetches url into a temp file in dir and returns its path.
func (in *Installer) download(ctx context.Context, url, dir string) (_ string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if in.UserAgent != "" {
		req.Header.Set("User-Agent", in.UserAgent)
	}

	client := in.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	tmp, err := os.CreateTemp(dir, "archive-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("writing archive: %w", err)
	}

	return tmp.Name(), nil
}

func (in *Installer) logf(msg string, kv ...any) {
	if in.Log != nil {
		in.Log.Debug(msg, kv...)
	}
}

// archiveType returns the effective archive type for a release, inferring
// from the download URL when unset.
func archiveType(release *Release) string {
	if release.ArchiveType != "" {
		return release.ArchiveType
	}
	if strings.HasSuffix(release.DownloadURL, ".zip") {
		return ArchiveZip
	}
	return ArchiveTarGz
}

// extractTarGz extracts a tar.gz archive into destDir. Entry paths are
// confined to destDir and total extracted size is capped.
func extractTarGz(archivePath, destDir string) (err error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only file handle

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }()

	var total int64
	tr := tar.NewReader(gz)
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			return nil
		}
		if nextErr != nil {
			return fmt.Errorf("reading tar entry: %w", nextErr)
		}

		target, pathErr := safeJoin(destDir, hdr.Name)
		if pathErr != nil {
			return pathErr
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("creating parent directory: %w", err)
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("creating symlink: %w", err)
			}
		case tar.TypeReg:
			n, writeErr := writeEntry(target, tr, hdr.FileInfo().Mode().Perm())
			if writeErr != nil {
				return writeErr
			}
			total += n
			if total > maxArchiveBytes {
				return fmt.Errorf("archive exceeds %d bytes", int64(maxArchiveBytes))
			}
		default:
			// Hard links, devices, FIFOs: nothing a runtime archive
			// legitimately carries; skip.
		}
	}
}

// extractZip extracts a zip archive into destDir with the same path and
// size confinement as extractTarGz.
func extractZip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = zr.Close() }()

	var total int64
	for _, entry := range zr.File {
		target, pathErr := safeJoin(destDir, entry.Name)
		if pathErr != nil {
			return pathErr
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
			continue
		}

		rc, openErr := entry.Open()
		if openErr != nil {
			return fmt.Errorf("opening archive entry %s: %w", entry.Name, openErr)
		}

		n, writeErr := writeEntry(target, rc, entry.FileInfo().Mode().Perm())
		_ = rc.Close()
		if writeErr != nil {
			return writeErr
		}

		total += n
		if total > maxArchiveBytes {
			return fmt.Errorf("archive exceeds %d bytes", int64(maxArchiveBytes))
		}
	}
	return nil
}

// writeEntry writes one extracted file, creating parents as needed.
// Returns the number of bytes written.
func writeEntry(target string, r io.Reader, perm os.FileMode) (_ int64, err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("creating parent directory: %w", err)
	}

	if perm == 0 {
		perm = 0o644
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	n, err := io.Copy(out, io.LimitReader(r, maxEntryBytes))
	if err != nil {
		return 0, fmt.Errorf("writing %s: %w", target, err)
	}
	return n, nil
}

// safeJoin joins name under dir, rejecting entries that would escape it.
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	if target != dir && !strings.HasPrefix(target, dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchivePath, name)
	}
	return target, nil
}

// collapseSingleDir returns the single top-level directory under dir when
// the extraction produced exactly one, otherwise dir itself.
func collapseSingleDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading extraction directory: %w", err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

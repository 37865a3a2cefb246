// SPDX-License-Identifier: MPL-2.0

// Package zulu resolves and installs Azul Zulu runtimes via the Azul
// metadata API.
package zulu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"javaup-cli/internal/distro"
	"javaup-cli/internal/platform"
	"javaup-cli/internal/toolcache"
	"javaup-cli/internal/versionspec"
)

const (
	// defaultBaseURL is the production Azul metadata API endpoint.
	defaultBaseURL = "https://api.azul.com"

	// pageSize is the number of packages fetched per API page. The Azul
	// listing pages from 1, not 0.
	pageSize = 100

	// maxPages is the upper bound on pagination to avoid runaway requests.
	maxPages = 10

	// maxJSONResponseBytes is the upper bound on API response size (10 MB).
	maxJSONResponseBytes = 10 << 20
)

type (
	// Provider implements distro.Provider for Azul Zulu.
	Provider struct {
		client    *client
		installer distro.Installer
	}

	// Option configures a Provider during construction.
	Option func(*Provider)

	// client queries the Azul metadata packages API.
	client struct {
		httpClient *http.Client
		baseURL    string
		userAgent  string
	}

	// remotePackage is the JSON wire format for one Zulu package. The
	// version arrives as a numeric array plus a separate OpenJDK build
	// number; the comparable version is reconstructed from those. The
	// listing carries no checksum (only the per-package detail endpoint
	// does), so Zulu installs run unverified.
	remotePackage struct {
		Name               string `json:"name"`
		DownloadURL        string `json:"download_url"`
		JavaVersion        []int  `json:"java_version"`
		OpenJDKBuildNumber int    `json:"openjdk_build_number"`
	}
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy
// configurations.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.client.httpClient = c
		p.installer.HTTPClient = c
	}
}

// WithBaseURL overrides the Azul API base URL, primarily for test servers.
func WithBaseURL(base string) Option {
	return func(p *Provider) {
		p.client.baseURL = strings.TrimRight(base, "/")
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(p *Provider) {
		p.client.userAgent = ua
		p.installer.UserAgent = ua
	}
}

// New creates a Zulu provider registering installs into store.
func New(store distro.Registrar, logger *log.Logger, opts ...Option) *Provider {
	p := &Provider{
		client: &client{
			httpClient: http.DefaultClient,
			baseURL:    defaultBaseURL,
			userAgent:  "javaup",
		},
		installer: distro.Installer{
			HTTPClient: http.DefaultClient,
			Store:      store,
			UserAgent:  "javaup",
			Log:        logger,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the distribution name.
func (p *Provider) Name() string { return "Zulu" }

// Resolve lists candidate packages from the Azul metadata API and
// selects the highest one satisfying the query.
func (p *Provider) Resolve(ctx context.Context, q distro.Query) (*distro.Release, error) {
	packages, err := p.client.listPackages(ctx, q)
	if err != nil {
		return nil, err
	}

	var best *distro.Release
	for _, pkg := range packages {
		v, vErr := pkg.comparable()
		if vErr != nil {
			continue
		}
		if !q.Spec.Matches(v) {
			continue
		}

		if best == nil || versionspec.Compare(v, best.Version) > 0 {
			best = &distro.Release{
				Version:     v,
				Stable:      q.Spec.Stable,
				DownloadURL: pkg.DownloadURL,
				ArchiveType: archiveTypeFromName(pkg.Name),
			}
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: Zulu %s for %s/%s", distro.ErrNoMatchingRelease,
			q.Spec.Range, platform.CatalogOS(q.Target.OS), q.Target.Arch)
	}

	return best, nil
}

// Install downloads, extracts, and registers the release in the local
// tool cache.
func (p *Provider) Install(ctx context.Context, q distro.Query, release *distro.Release) (*toolcache.Installation, error) {
	tool := distro.ToolFolder(p.Name(), q.PackageType)
	return p.installer.InstallArchive(ctx, tool, release, q.Target.Arch)
}

// comparable reconstructs the canonical comparable version from the
// numeric version array, with the OpenJDK build number as metadata.
func (pkg remotePackage) comparable() (*semver.Version, error) {
	parts := [3]int{}
	if len(pkg.JavaVersion) == 0 {
		return nil, fmt.Errorf("package %s has no version", pkg.Name)
	}
	copy(parts[:], pkg.JavaVersion)

	s := fmt.Sprintf("%d.%d.%d", parts[0], parts[1], parts[2])
	if pkg.OpenJDKBuildNumber > 0 {
		s = fmt.Sprintf("%s+%d", s, pkg.OpenJDKBuildNumber)
	}
	return semver.NewVersion(s)
}

// archiveTypeFromName infers the archive type from the package filename.
func archiveTypeFromName(name string) string {
	if strings.HasSuffix(name, ".zip") {
		return distro.ArchiveZip
	}
	return distro.ArchiveTarGz
}

// listPackages pages through the Azul packages listing for the queried
// platform and channel, filtered to the requested feature version. Exact
// range matching stays client-side.
func (c *client) listPackages(ctx context.Context, q distro.Query) ([]remotePackage, error) {
	releaseStatus := "ga"
	if !q.Spec.Stable {
		releaseStatus = "ea"
	}

	var all []remotePackage

	for page := 1; page <= maxPages; page++ {
		query := url.Values{
			"os":                 {platform.CatalogOS(q.Target.OS)},
			"arch":               {q.Target.Arch},
			"java_package_type":  {q.PackageType},
			"javafx_bundled":     {"false"},
			"release_status":     {releaseStatus},
			"availability_types": {"CA"},
			"page":               {fmt.Sprint(page)},
			"page_size":          {fmt.Sprint(pageSize)},
		}
		// Bound the listing to the requested feature version so older
		// majors stay reachable within the pagination cap; exact
		// selection remains client-side.
		if major, ok := q.Spec.Major(); ok {
			query.Set("java_version", fmt.Sprint(major))
		}
		pageURL := fmt.Sprintf("%s/metadata/v1/zulu/packages/?%s", c.baseURL, query.Encode())

		packages, done, err := c.fetchPage(ctx, pageURL, page)
		if err != nil {
			return nil, err
		}
		all = append(all, packages...)
		if done {
			break
		}
	}

	return all, nil
}

// fetchPage retrieves one listing page. done reports that pagination
// should stop: a short page, or the API's 404 past the final page.
func (c *client) fetchPage(ctx context.Context, pageURL string, page int) (_ []remotePackage, done bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode == http.StatusNotFound {
		return nil, true, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, false, &distro.StatusError{StatusCode: resp.StatusCode, URL: pageURL}
	}

	var packages []remotePackage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&packages); err != nil {
		return nil, false, fmt.Errorf("decoding package listing (page %d): %w", page, err)
	}

	return packages, len(packages) < pageSize, nil
}

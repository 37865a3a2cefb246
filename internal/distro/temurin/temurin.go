// SPDX-License-Identifier: MPL-2.0

// Package temurin resolves and installs Eclipse Temurin runtimes via the
// Adoptium v3 API.
package temurin

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
	// defaultBaseURL is the production Adoptium API endpoint.
	defaultBaseURL = "https://api.adoptium.net"

	// pageSize is the number of releases fetched per API page.
	pageSize = 20

	// maxPages is the upper bound on pagination to avoid runaway requests.
	maxPages = 10

	// maxJSONResponseBytes is the upper bound on API response size (10 MB).
	maxJSONResponseBytes = 10 << 20
)

type (
	// Provider implements distro.Provider for Eclipse Temurin.
	Provider struct {
		client    *client
		installer distro.Installer
	}

	// Option configures a Provider during construction.
	Option func(*Provider)

	// client queries the Adoptium v3 assets API.
	client struct {
		httpClient *http.Client
		baseURL    string
		userAgent  string
	}

	// remoteRelease is the JSON wire format for one Adoptium release.
	remoteRelease struct {
		ReleaseName string        `json:"release_name"`
		VersionData versionData   `json:"version_data"`
		Binaries    []binaryEntry `json:"binaries"`
	}

	// versionData carries the numeric version fields Adoptium publishes.
	// The canonical comparable version is reconstructed from these rather
	// than from the vendor's semver string, whose pre-release markers
	// vary between channels.
	versionData struct {
		Major    uint64 `json:"major"`
		Minor    uint64 `json:"minor"`
		Security uint64 `json:"security"`
		Build    uint64 `json:"build"`
	}

	// binaryEntry is one downloadable binary within a release.
	binaryEntry struct {
		OS           string       `json:"os"`
		Architecture string       `json:"architecture"`
		ImageType    string       `json:"image_type"`
		Package      packageEntry `json:"package"`
	}

	// packageEntry is the downloadable archive descriptor.
	packageEntry struct {
		Name     string `json:"name"`
		Link     string `json:"link"`
		Checksum string `json:"checksum"`
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

// WithBaseURL overrides the Adoptium API base URL, primarily for test
// servers.
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

// New creates a Temurin provider registering installs into store.
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
func (p *Provider) Name() string { return "Temurin" }

// Resolve lists candidate releases from the Adoptium API and selects the
// highest one satisfying the query, using the same build-aware ordering
// the cache resolver uses.
func (p *Provider) Resolve(ctx context.Context, q distro.Query) (*distro.Release, error) {
	releases, err := p.client.listReleases(ctx, q)
	if err != nil {
		return nil, err
	}

	var best *distro.Release
	for _, r := range releases {
		v, vErr := r.VersionData.comparable()
		if vErr != nil {
			continue
		}
		if !q.Spec.Matches(v) {
			continue
		}

		pkg, ok := r.matchingPackage(q)
		if !ok {
			continue
		}

		if best == nil || versionspec.Compare(v, best.Version) > 0 {
			best = &distro.Release{
				Version:     v,
				Stable:      q.Spec.Stable,
				DownloadURL: pkg.Link,
				Checksum:    pkg.Checksum,
				ArchiveType: archiveTypeFromName(pkg.Name),
			}
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: Temurin %s for %s/%s", distro.ErrNoMatchingRelease,
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

// comparable reconstructs the canonical comparable version: numeric
// major.minor.security with the build number as metadata.
func (d versionData) comparable() (*semver.Version, error) {
	s := fmt.Sprintf("%d.%d.%d", d.Major, d.Minor, d.Security)
	if d.Build > 0 {
		s = fmt.Sprintf("%s+%d", s, d.Build)
	}
	return semver.NewVersion(s)
}

// matchingPackage returns the binary package for the queried platform and
// package kind.
func (r remoteRelease) matchingPackage(q distro.Query) (packageEntry, bool) {
	catalogOS := platform.CatalogOS(q.Target.OS)
	for _, b := range r.Binaries {
		if b.OS == catalogOS && b.Architecture == q.Target.Arch && b.ImageType == q.PackageType {
			return b.Package, true
		}
	}
	return packageEntry{}, false
}

// archiveTypeFromName infers the archive type from the package filename.
func archiveTypeFromName(name string) string {
	if strings.HasSuffix(name, ".zip") {
		return distro.ArchiveZip
	}
	return distro.ArchiveTarGz
}

// listReleases pages through the Adoptium assets listing for the queried
// platform and channel, bounded to the requested feature version. Exact
// range matching stays client-side so that selection ordering matches
// the cache resolver exactly.
func (c *client) listReleases(ctx context.Context, q distro.Query) ([]remoteRelease, error) {
	releaseType := "ga"
	if !q.Spec.Stable {
		releaseType = "ea"
	}

	var all []remoteRelease

	for page := 0; page < maxPages; page++ {
		query := url.Values{
			"architecture": {q.Target.Arch},
			"heap_size":    {"normal"},
			"image_type":   {q.PackageType},
			"os":           {platform.CatalogOS(q.Target.OS)},
			"page":         {fmt.Sprint(page)},
			"page_size":    {fmt.Sprint(pageSize)},
			"project":      {"jdk"},
			"release_type": {releaseType},
			"sort_method":  {"DEFAULT"},
			"sort_order":   {"DESC"},
			"vendor":       {"eclipse"},
		}
		pageURL := fmt.Sprintf("%s/v3/assets/version/%s?%s",
			c.baseURL, url.PathEscape(rangeParam(q.Spec)), query.Encode())

		releases, done, err := c.fetchPage(ctx, pageURL, page)
		if err != nil {
			return nil, err
		}
		all = append(all, releases...)
		if done {
			break
		}
	}

	return all, nil
}

// fetchPage retrieves one listing page. done reports that pagination
// should stop: a short page, or the API's 404 past the final page.
func (c *client) fetchPage(ctx context.Context, pageURL string, page int) (_ []remoteRelease, done bool, err error) {
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

	// The assets API answers 404 both for "no such page" and for "no
	// releases match the filters". Either way the listing is exhausted.
	if resp.StatusCode == http.StatusNotFound {
		return nil, true, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, false, &distro.StatusError{StatusCode: resp.StatusCode, URL: pageURL}
	}

	var releases []remoteRelease
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&releases); err != nil {
		return nil, false, fmt.Errorf("decoding release listing (page %d): %w", page, err)
	}

	return releases, len(releases) < pageSize, nil
}

// rangeParam renders the version-path parameter for the assets API,
// bounded to the requested feature version so releases of older majors
// stay reachable within the pagination cap. Exact selection remains
// client-side, matching how the cache side filters, so remote and local
// selection cannot disagree.
func rangeParam(spec versionspec.Spec) string {
	if major, ok := spec.Major(); ok {
		return fmt.Sprintf("[%d.0.0,%d.0.0)", major, major+1)
	}
	return "[1.0,100.0]"
}

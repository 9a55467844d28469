package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/adamancini/updsync/internal/version"
)

// Defaults for the open-release provider.
const (
	DefaultGitHubAPI   = "https://api.github.com"
	DefaultAssetSuffix = "universal.apk"
)

// GitHubResolver checks the public releases list of a GitHub repository.
type GitHubResolver struct {
	client      Doer
	baseURL     string // Base URL for GitHub API (for testing)
	owner       string // Repository owner
	repo        string // Repository name
	assetSuffix string
	compare     version.Comparator
}

// GitHubRelease represents one entry of the releases list.
type GitHubRelease struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Body       string `json:"body"`
	HTMLURL    string `json:"html_url"`
	Prerelease bool   `json:"prerelease"`
	Assets     []struct {
		Name               string `json:"name"`
		Size               int64  `json:"size"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// NewGitHubResolver creates a resolver for owner/repo comparing tags with compare.
func NewGitHubResolver(client Doer, owner, repo string, compare version.Comparator) *GitHubResolver {
	return &GitHubResolver{
		client:      client,
		baseURL:     DefaultGitHubAPI,
		owner:       owner,
		repo:        repo,
		assetSuffix: DefaultAssetSuffix,
		compare:     compare,
	}
}

// WithBaseURL overrides the API base URL.
func (r *GitHubResolver) WithBaseURL(baseURL string) *GitHubResolver {
	if baseURL != "" {
		r.baseURL = strings.TrimRight(baseURL, "/")
	}
	return r
}

// WithAssetSuffix sets the suffix selecting the downloadable asset.
func (r *GitHubResolver) WithAssetSuffix(suffix string) *GitHubResolver {
	if suffix != "" {
		r.assetSuffix = suffix
	}
	return r
}

// RequiresEntitlement is always false for public releases.
func (r *GitHubResolver) RequiresEntitlement() bool { return false }

// Resolve fetches the releases list and compares the newest tag with the
// current version. The request CDK is ignored.
func (r *GitHubResolver) Resolve(ctx context.Context, req Request) Result {
	releases, res := r.listReleases(ctx)
	if res != nil {
		return res
	}
	if len(releases) == 0 {
		return NoUpdate{CurrentVersion: req.CurrentVersion}
	}

	latest := releases[0]
	remote := strings.TrimPrefix(strings.TrimPrefix(latest.TagName, "v"), "V")
	if !version.IsNewer(r.compare, req.CurrentVersion, remote) {
		return NoUpdate{CurrentVersion: req.CurrentVersion}
	}

	for _, asset := range latest.Assets {
		if strings.HasSuffix(asset.Name, r.assetSuffix) {
			return UpdateAvailable{
				Version:     remote,
				DownloadURL: asset.BrowserDownloadURL,
				ReleaseNote: latest.Body,
				Size:        asset.Size,
			}
		}
	}
	return CheckError{
		Code:    -1,
		Message: fmt.Sprintf("no asset matching %q in release %s", r.assetSuffix, latest.TagName),
		Kind:    KindMalformed,
	}
}

// listReleases fetches the releases list. A non-nil Result reports a failure.
func (r *GitHubResolver) listReleases(ctx context.Context) ([]GitHubRelease, Result) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases", r.baseURL, r.owner, r.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, CheckError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("GitHub API returned status %d", resp.StatusCode),
			Kind:    KindStatus,
		}
	}

	payload, err := readPayload(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	var releases []GitHubRelease
	if err := json.Unmarshal(payload, &releases); err != nil {
		return nil, unknownError
	}
	return releases, nil
}

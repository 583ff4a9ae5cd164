package upgrade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bacli/bacli/internal/logging"
	"github.com/bacli/bacli/internal/urls"
)

// Release asset names published with every ESP-Miner release.
const (
	FirmwareAsset = "esp-miner.bin"
	WWWAsset      = "www.bin"
)

const (
	// DefaultReleaseTimeout bounds release lookups and asset downloads.
	DefaultReleaseTimeout = 2 * time.Minute

	// maxAssetSize caps a downloaded asset; real images are a few MB.
	maxAssetSize = 32 << 20
)

// GitHubReleases fetches release metadata and assets from GitHub.
type GitHubReleases struct {
	HTTPClient   *http.Client
	LatestURL    string
	DownloadBase string
	UserAgent    string
}

// NewGitHubReleases returns a release source for the upstream firmware repository.
func NewGitHubReleases(userAgent string) *GitHubReleases {
	return &GitHubReleases{
		HTTPClient:   &http.Client{Timeout: DefaultReleaseTimeout},
		LatestURL:    urls.LatestRelease,
		DownloadBase: urls.ReleaseDownloadBase,
		UserAgent:    userAgent,
	}
}

type releaseResponse struct {
	TagName string `json:"tag_name"`
}

// LatestTag returns the tag name of the newest published release.
func (g *GitHubReleases) LatestTag(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.LatestURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create release request: %w", err)
	}
	req.Header.Set("Accept", urls.GitHubAccept)
	req.Header.Set("X-GitHub-Api-Version", urls.GitHubAPIVersion)
	g.setUserAgent(req)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("latest release lookup returned HTTP %d", resp.StatusCode)
	}

	var release releaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("failed to decode release response: %w", err)
	}
	if release.TagName == "" {
		return "", errors.New("latest release has no tag name")
	}

	logging.Debug("Latest firmware release", zap.String("tag", release.TagName))
	return release.TagName, nil
}

// AssetURL returns the download URL of a release asset.
func (g *GitHubReleases) AssetURL(tag, filename string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(g.DownloadBase, "/"), tag, filename)
}

// Download fetches one release asset into memory.
func (g *GitHubReleases) Download(ctx context.Context, tag, filename string) ([]byte, error) {
	url := g.AssetURL(tag, filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	g.setUserAgent(req)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", filename, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download of %s returned HTTP %d", filename, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if len(data) > maxAssetSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", filename, maxAssetSize)
	}

	logging.Debug("Downloaded release asset",
		zap.String("url", url),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}

func (g *GitHubReleases) setUserAgent(req *http.Request) {
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/cenkalti/backoff/v4"
	ghapi "github.com/google/go-github/v72/github"

	"github.com/catdevcode/catos-flasher/internal/state"
)

// The Github provider.
type github struct {
	gh     *ghapi.Client
	client *http.Client

	apiURL  string
	retries uint64
}

func (p *github) load(_ context.Context) error {
	// Setup the Github client.
	p.gh = ghapi.NewClient(p.client)

	// Allow pointing at a Github Enterprise instance or a mirror.
	if p.apiURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(p.apiURL, "/") + "/")
		if err != nil {
			return err
		}

		p.gh.BaseURL = baseURL
	}

	return nil
}

// FetchLatest resolves the latest release and its firmware asset.
func (p *github) FetchLatest(ctx context.Context, owner string, repo string) (*ReleaseInfo, error) {
	var release *ghapi.RepositoryRelease

	getRelease := func() error {
		var err error

		release, _, err = p.gh.Repositories.GetLatestRelease(ctx, owner, repo)
		if err != nil {
			return p.checkError(ctx, err)
		}

		return nil
	}

	// Only transport failures are retried, an HTTP error response is final.
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), p.retries), ctx)

	err := backoff.Retry(getRelease, bo)
	if err != nil {
		return nil, err
	}

	info := ReleaseInfo{
		Tag: release.GetTagName(),
	}

	for _, asset := range release.Assets {
		if asset.GetName() == FirmwareAssetName {
			info.ArtifactURL = asset.GetBrowserDownloadURL()

			break
		}
	}

	if info.ArtifactURL == "" {
		return nil, fmt.Errorf("%w: %s has no %s", ErrAssetNotFound, info.Tag, FirmwareAssetName)
	}

	slog.DebugContext(ctx, "Resolved latest firmware release", slog.String("tag", info.Tag), slog.String("url", info.ArtifactURL))

	return &info, nil
}

// Download streams the release firmware into the cache directory and records its version.
func (p *github) Download(ctx context.Context, release *ReleaseInfo, destinationDir string, progressFunc func(int)) (*state.CachedFirmware, error) {
	if release == nil || release.ArtifactURL == "" {
		return nil, ErrAssetNotFound
	}

	// Create the target path.
	err := os.MkdirAll(destinationDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}

	fw := state.CachedFirmware{
		VersionTag: release.Tag,
		Path:       state.FirmwarePath(destinationDir),
	}

	err = downloadAsset(ctx, p.client, release.ArtifactURL, fw.Path, progressFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}

	// Only record the version once the image is in place.
	err = fw.Save()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}

	return &fw, nil
}

func (*github) checkError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return backoff.Permanent(fmt.Errorf("%w: %w", ErrNetwork, ctx.Err()))
	}

	var rateErr *ghapi.RateLimitError
	if errors.As(err, &rateErr) {
		return backoff.Permanent(fmt.Errorf("%w: rate limited until %s", ErrNetwork, rateErr.Rate.Reset.String()))
	}

	var respErr *ghapi.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return backoff.Permanent(fmt.Errorf("%w: %d", ErrNetwork, respErr.Response.StatusCode))
	}

	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

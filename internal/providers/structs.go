package providers

import (
	"context"

	"github.com/catdevcode/catos-flasher/internal/state"
)

// FirmwareAssetName is the release asset holding the application image.
const FirmwareAssetName = "firmware.bin"

// ReleaseInfo describes the latest published firmware release.
// An empty ArtifactURL means the release has no firmware asset.
type ReleaseInfo struct {
	Tag         string
	ArtifactURL string
}

// ReleaseFetcher resolves and downloads firmware releases.
type ReleaseFetcher interface {
	FetchLatest(ctx context.Context, owner string, repo string) (*ReleaseInfo, error)
	Download(ctx context.Context, release *ReleaseInfo, destinationDir string, progressFunc func(int)) (*state.CachedFirmware, error)
}

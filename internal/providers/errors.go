package providers

import (
	"errors"
)

// ErrNetwork is returned when the release metadata can't be retrieved.
var ErrNetwork = errors.New("unable to fetch release information")

// ErrAssetNotFound is returned when the latest release doesn't provide the firmware asset.
var ErrAssetNotFound = errors.New("firmware asset not found in release")

// ErrDownload is returned when the firmware artifact couldn't be downloaded.
var ErrDownload = errors.New("firmware download failed")

package state

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// VersionFilename is the sidecar file holding the tag of the cached firmware.
	VersionFilename = "current_release.txt"

	// FirmwareFilename is the cached application image.
	FirmwareFilename = "firmware.bin"

	// UnknownVersion is reported when no usable version record exists.
	UnknownVersion = "Unknown"
)

// ErrNoCachedFirmware is returned when the cache doesn't hold a complete firmware.
var ErrNoCachedFirmware = errors.New("no cached firmware")

// CachedFirmware represents the firmware stored in the on-disk cache.
type CachedFirmware struct {
	VersionTag string
	Path       string
}

// FirmwarePath returns the path of the cached application image in the given directory.
func FirmwarePath(cacheDir string) string {
	return filepath.Join(cacheDir, FirmwareFilename)
}

// LoadFirmware reads the version record of the cache and returns the cached firmware.
func LoadFirmware(cacheDir string) (*CachedFirmware, error) {
	// #nosec G304
	body, err := os.ReadFile(filepath.Join(cacheDir, VersionFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCachedFirmware
		}

		return nil, err
	}

	tag := strings.TrimSpace(string(body))
	if tag == "" {
		return nil, ErrNoCachedFirmware
	}

	fw := CachedFirmware{
		VersionTag: tag,
		Path:       FirmwarePath(cacheDir),
	}

	_, err = os.Stat(fw.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCachedFirmware
		}

		return nil, err
	}

	return &fw, nil
}

// Save records the firmware version in the cache directory.
// It must only be called once the firmware image itself is fully written.
func (f *CachedFirmware) Save() error {
	err := os.MkdirAll(filepath.Dir(f.Path), 0o755)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(filepath.Dir(f.Path), VersionFilename), []byte(f.VersionTag), 0o644)
}

// CurrentVersion returns the tag of the cached firmware, or UnknownVersion when the
// cache doesn't hold both a version record and its image.
func CurrentVersion(cacheDir string) string {
	fw, err := LoadFirmware(cacheDir)
	if err != nil {
		if !errors.Is(err, ErrNoCachedFirmware) {
			slog.Debug("Failed to read cached firmware", slog.String("dir", cacheDir), slog.Any("error", err))
		}

		return UnknownVersion
	}

	return fw.VersionTag
}

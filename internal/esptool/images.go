package esptool

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// FlashImage binds an image file to its offset in the device flash.
type FlashImage struct {
	Path   string
	Offset uint32
}

// HexOffset returns the offset in the notation expected by the flashing tool.
func (i FlashImage) HexOffset() string {
	return fmt.Sprintf("0x%X", i.Offset)
}

// Fixed offsets of the ESP32 Arduino layout.
const (
	BootloaderOffset = 0x1000
	PartitionsOffset = 0x8000
	BootApp0Offset   = 0xE000
	FirmwareOffset   = 0x10000
)

// Layout returns the four images written on every flash, in write order.
// The static images are shipped in imagesDir, the application image is the cached firmware.
func Layout(imagesDir string, firmwarePath string) []FlashImage {
	return []FlashImage{
		{Path: filepath.Join(imagesDir, "bootloader.bin"), Offset: BootloaderOffset},
		{Path: filepath.Join(imagesDir, "partitions.bin"), Offset: PartitionsOffset},
		{Path: filepath.Join(imagesDir, "boot_app0.bin"), Offset: BootApp0Offset},
		{Path: firmwarePath, Offset: FirmwareOffset},
	}
}

// MissingImageError is returned when an image required for flashing doesn't exist.
type MissingImageError struct {
	Path string
}

func (e *MissingImageError) Error() string {
	return "File not found: " + e.Path
}

// CheckImages verifies that every image exists.
// All missing paths are reported, each as a *MissingImageError.
func CheckImages(images []FlashImage) error {
	var result *multierror.Error

	for _, image := range images {
		_, err := os.Stat(image.Path)
		if err == nil {
			continue
		}

		if !errors.Is(err, os.ErrNotExist) {
			return err
		}

		result = multierror.Append(result, &MissingImageError{Path: image.Path})
	}

	if result == nil {
		return nil
	}

	result.ErrorFormat = formatMissingImages

	return result
}

func formatMissingImages(errs []error) string {
	paths := make([]string, 0, len(errs))

	for _, err := range errs {
		var missing *MissingImageError
		if errors.As(err, &missing) {
			paths = append(paths, missing.Path)
		} else {
			paths = append(paths, err.Error())
		}
	}

	return "Missing files for the firmware:\n" + strings.Join(paths, "\n")
}

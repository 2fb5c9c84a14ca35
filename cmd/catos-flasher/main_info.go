package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/catdevcode/catos-flasher/api"
	"github.com/catdevcode/catos-flasher/internal/esptool"
	"github.com/catdevcode/catos-flasher/internal/state"
)

type cmdInfo struct {
	global *cmdGlobal
}

type infoImage struct {
	Path    string `json:"path"`
	Offset  string `json:"offset"`
	Present bool   `json:"present"`
}

type info struct {
	FirmwareVersion string      `json:"firmware_version"`
	OS              string      `json:"os"`
	FlasherVersion  string      `json:"flasher_version"`
	Images          []infoImage `json:"images"`
}

func (c *cmdInfo) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "info"
	cmd.Short = "Show the cached firmware and flash layout"
	cmd.Long = formatSection("Description", "Shows the version of the cached CatOS firmware and the images written when flashing.")
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.run

	return cmd
}

func (c *cmdInfo) run(_ *cobra.Command, _ []string) error {
	cfg, err := c.global.loadConfig()
	if err != nil {
		return err
	}

	details := collectInfo(cfg)

	if c.global.flagJSON {
		return json.NewEncoder(os.Stdout).Encode(details)
	}

	printInfo(os.Stdout, details)

	return nil
}

func collectInfo(cfg *api.FlasherConfig) info {
	details := info{
		FirmwareVersion: state.CurrentVersion(cfg.Storage.CacheDirectory),
		OS:              runtime.GOOS,
		FlasherVersion:  "v" + version,
	}

	for _, image := range esptool.Layout(cfg.Storage.ImagesDirectory, state.FirmwarePath(cfg.Storage.CacheDirectory)) {
		_, err := os.Stat(image.Path)

		details.Images = append(details.Images, infoImage{
			Path:    image.Path,
			Offset:  image.HexOffset(),
			Present: !errors.Is(err, os.ErrNotExist),
		})
	}

	return details
}

func printInfo(w io.Writer, details info) {
	_, _ = fmt.Fprintf(w, "CatOS version: %s\n", details.FirmwareVersion)
	_, _ = fmt.Fprintf(w, "OS: %s\n", details.OS)
	_, _ = fmt.Fprintf(w, "CatOS Flasher: %s\n", details.FlasherVersion)

	_, _ = fmt.Fprintln(w, "\nFlash layout:")
	for _, image := range details.Images {
		status := ""
		if !image.Present {
			status = " (missing)"
		}

		_, _ = fmt.Fprintf(w, "  %-8s %s%s\n", image.Offset, image.Path, status)
	}
}

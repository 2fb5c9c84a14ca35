package main

import (
	"context"

	"github.com/spf13/cobra"
)

type cmdDownload struct {
	global *cmdGlobal
}

func (c *cmdDownload) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "download"
	cmd.Short = "Download the latest firmware"
	cmd.Long = formatSection("Description", "Downloads firmware.bin from the latest CatOS release into the cache directory.")
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.run

	return cmd
}

func (c *cmdDownload) run(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	printer := c.global.newPrinter()

	// Downloading doesn't talk to the device, any port name will do.
	s, err := c.global.newSession(ctx, c.global.flagPort, printer)
	if err != nil {
		return err
	}

	return runOperation(s, printer, func() error { return s.StartDownload(ctx) })
}

package main

import (
	"context"

	"github.com/spf13/cobra"
)

type cmdFlash struct {
	global *cmdGlobal

	flagDownload bool
}

func (c *cmdFlash) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "flash"
	cmd.Short = "Flash the cached firmware"
	cmd.Long = formatSection("Description",
		`Flashes the cached firmware to the device

The bootloader, partition table, boot selector and firmware are written
at their fixed offsets.`)
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.run

	cmd.Flags().BoolVarP(&c.flagDownload, "download", "d", false, "Download the latest firmware first")

	return cmd
}

func (c *cmdFlash) run(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	port, err := c.global.selectPort()
	if err != nil {
		return err
	}

	printer := c.global.newPrinter()

	s, err := c.global.newSession(ctx, port, printer)
	if err != nil {
		return err
	}

	if c.flagDownload {
		err = runOperation(s, printer, func() error { return s.StartDownload(ctx) })
		if err != nil {
			return err
		}
	}

	return runOperation(s, printer, func() error { return s.StartFlash(ctx) })
}

package main

import (
	"context"

	"github.com/spf13/cobra"
)

type cmdErase struct {
	global *cmdGlobal

	flagYes bool
}

func (c *cmdErase) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "erase"
	cmd.Short = "Erase the device flash"
	cmd.Long = formatSection("Description", "Erases the whole flash memory of the device. All data is permanently deleted.")
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.run

	cmd.Flags().BoolVarP(&c.flagYes, "yes", "y", false, "Don't ask for confirmation")

	return cmd
}

func (c *cmdErase) run(_ *cobra.Command, _ []string) error {
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

	confirm := c.global.confirm
	if c.flagYes {
		confirm = func(string) (bool, error) { return true, nil }
	}

	return runOperation(s, printer, func() error { return s.StartErase(ctx, confirm) })
}

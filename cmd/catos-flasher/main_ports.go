package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/catdevcode/catos-flasher/internal/ports"
)

type cmdPorts struct {
	global *cmdGlobal
}

func (c *cmdPorts) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "ports"
	cmd.Short = "List serial ports"
	cmd.Long = formatSection("Description", "Lists the serial ports a device can be flashed through.")
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.run

	return cmd
}

func (c *cmdPorts) run(_ *cobra.Command, _ []string) error {
	names, err := ports.Available(c.global.registry)
	if err != nil {
		return err
	}

	if c.global.flagJSON {
		return json.NewEncoder(os.Stdout).Encode(names)
	}

	for _, name := range names {
		_, _ = fmt.Println(name) //nolint:forbidigo
	}

	return nil
}

package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/catdevcode/catos-flasher/api"
	"github.com/catdevcode/catos-flasher/internal/config"
)

type cmdConfig struct {
	global *cmdGlobal
}

func (c *cmdConfig) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "config"
	cmd.Short = "Show the effective configuration"
	cmd.Long = formatSection("Description", "Shows the configuration in use, after applying the command line overrides.\nThe output can be saved as a configuration file.")
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.run

	return cmd
}

func (c *cmdConfig) run(_ *cobra.Command, _ []string) error {
	cfg, err := c.global.loadConfig()
	if err != nil {
		return err
	}

	if c.global.flagJSON {
		return json.NewEncoder(os.Stdout).Encode(cfg)
	}

	return writeConfig(os.Stdout, cfg)
}

func writeConfig(w io.Writer, cfg *api.FlasherConfig) error {
	body, err := config.Encode(cfg)
	if err != nil {
		return err
	}

	_, err = w.Write(body)

	return err
}

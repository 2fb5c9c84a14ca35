// Package main is used for the CatOS flasher.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/lxc/incus/v6/shared/ask"
	"github.com/spf13/cobra"

	"github.com/catdevcode/catos-flasher/api"
	"github.com/catdevcode/catos-flasher/internal/config"
	"github.com/catdevcode/catos-flasher/internal/console"
	"github.com/catdevcode/catos-flasher/internal/esptool"
	"github.com/catdevcode/catos-flasher/internal/ports"
	"github.com/catdevcode/catos-flasher/internal/providers"
	"github.com/catdevcode/catos-flasher/internal/session"
)

var version = "0.1"

type cmdGlobal struct {
	flagHelp      bool
	flagVersion   bool
	flagDebug     bool
	flagJSON      bool
	flagConfig    string
	flagPort      string
	flagCacheDir  string
	flagImagesDir string
	flagTool      string

	asker    ask.Asker
	registry ports.Registry
}

func main() {
	// Global flags.
	globalCmd := cmdGlobal{
		asker:    ask.NewAsker(bufio.NewReader(os.Stdin)),
		registry: ports.NewRegistry(),
	}

	app := &cobra.Command{
		Use:   "catos-flasher",
		Short: "CatOS ESP32 firmware flasher",
		Long: formatSection("Description",
			"CatOS ESP32 firmware flasher\n\nThis tool downloads the latest CatOS firmware release and writes it to an ESP32 over a serial port.\nWithout a sub-command, an interactive menu is shown."),
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: globalCmd.preRun,
		RunE:              globalCmd.run,
	}

	app.PersistentFlags().BoolVarP(&globalCmd.flagHelp, "help", "h", false, "Print help command")
	app.PersistentFlags().BoolVarP(&globalCmd.flagVersion, "version", "v", false, "Print binary version")
	app.PersistentFlags().BoolVar(&globalCmd.flagDebug, "debug", false, "Show debug messages")
	app.PersistentFlags().BoolVar(&globalCmd.flagJSON, "json", false, "Print operation events as JSON lines")
	app.PersistentFlags().StringVarP(&globalCmd.flagConfig, "config", "c", config.DefaultPath, "Path to the configuration file")
	app.PersistentFlags().StringVarP(&globalCmd.flagPort, "port", "p", "", "Serial port of the device (disables port prompt)")
	app.PersistentFlags().StringVar(&globalCmd.flagCacheDir, "cache-dir", "", "Directory holding the downloaded firmware")
	app.PersistentFlags().StringVar(&globalCmd.flagImagesDir, "images-dir", "", "Directory holding bootloader.bin, partitions.bin and boot_app0.bin")
	app.PersistentFlags().StringVar(&globalCmd.flagTool, "tool", "", "Flashing tool command, for example \"python3 -m esptool\"")

	// Sub-commands.
	portsCmd := cmdPorts{global: &globalCmd}
	app.AddCommand(portsCmd.command())

	infoCmd := cmdInfo{global: &globalCmd}
	app.AddCommand(infoCmd.command())

	configCmd := cmdConfig{global: &globalCmd}
	app.AddCommand(configCmd.command())

	downloadCmd := cmdDownload{global: &globalCmd}
	app.AddCommand(downloadCmd.command())

	flashCmd := cmdFlash{global: &globalCmd}
	app.AddCommand(flashCmd.command())

	eraseCmd := cmdErase{global: &globalCmd}
	app.AddCommand(eraseCmd.command())

	// Help handling.
	app.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	// Run the main command and handle errors.
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func (c *cmdGlobal) preRun(_ *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if c.flagDebug {
		level = slog.LevelDebug
	}

	// Logs go to stderr so JSON events on stdout stay parseable.
	slog.SetDefault(slog.New(console.NewTextHandler(os.Stderr, level, console.IsTerminal())))

	return nil
}

func (c *cmdGlobal) run(_ *cobra.Command, _ []string) error {
	if c.flagVersion {
		_, _ = fmt.Println("catos-flasher version " + version) //nolint:forbidigo

		return nil
	}

	ctx := context.Background()

	slog.InfoContext(ctx, "CatOS flasher")

	return c.interactive(ctx)
}

// loadConfig reads the configuration file and applies the command line overrides.
func (c *cmdGlobal) loadConfig() (*api.FlasherConfig, error) {
	cfg, err := config.Load(c.flagConfig)
	if err != nil {
		return nil, err
	}

	if c.flagCacheDir != "" {
		cfg.Storage.CacheDirectory = c.flagCacheDir
	}

	if c.flagImagesDir != "" {
		cfg.Storage.ImagesDirectory = c.flagImagesDir
	}

	if c.flagTool != "" {
		cfg.Tool.Command = c.flagTool
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// selectPort returns the port given on the command line, or asks for one.
func (c *cmdGlobal) selectPort() (string, error) {
	if c.flagPort != "" {
		return ports.Select(c.registry, c.flagPort)
	}

	names, err := ports.Available(c.registry)
	if err != nil {
		return "", err
	}

	prompt, selections := menuPrompt("Serial ports", names)

	selection, err := c.asker.AskChoice(prompt, selections, selections[0])
	if err != nil {
		return "", err
	}

	for i, s := range selections {
		if s == selection {
			return names[i], nil
		}
	}

	return "", ports.ErrUnknownPort
}

// newSession sets up a provisioning session on port, rendering events with printer.
func (c *cmdGlobal) newSession(ctx context.Context, port string, printer *console.Printer) (*session.Session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	fetcher, err := providers.Load(ctx, cfg.Release, http.DefaultClient)
	if err != nil {
		return nil, err
	}

	toolName, toolArgs := cfg.Tool.ToolCommand()
	programmer := esptool.NewProgrammer(esptool.NewRunner(), toolName, toolArgs...)

	return session.New(port, *cfg, fetcher, programmer, printer), nil
}

func (c *cmdGlobal) newPrinter() *console.Printer {
	return console.NewPrinter(os.Stdout, console.DetectMode(c.flagJSON))
}

// confirm asks a yes/no question, defaulting to no.
func (c *cmdGlobal) confirm(question string) (bool, error) {
	return c.asker.AskBool(question+" [y/N] ", "n")
}

// runOperation starts an operation, waits for its outcome and turns a failure into an error.
func runOperation(s *session.Session, printer *console.Printer, start func() error) error {
	err := start()
	if err != nil {
		return err
	}

	s.Wait()

	outcome, ok := printer.Outcome()
	if !ok {
		// Nothing ran, for example a declined confirmation.
		return nil
	}

	if !outcome.Succeeded {
		return errors.New(outcome.Message)
	}

	return printer.Err()
}

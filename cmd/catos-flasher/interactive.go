package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/catdevcode/catos-flasher/internal/esptool"
	"github.com/catdevcode/catos-flasher/internal/session"
)

const (
	menuDownload = "Download latest firmware"
	menuFlash    = "Flash firmware"
	menuErase    = "Erase flash memory"
	menuInfo     = "Show firmware information"
	menuExit     = "Exit"
)

func (c *cmdGlobal) interactive(ctx context.Context) error {
	port, err := c.selectPort()
	if err != nil {
		return err
	}

	printer := c.newPrinter()

	s, err := c.newSession(ctx, port, printer)
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Using serial port", slog.String("port", s.Port()))

	printInfo(os.Stdout, collectInfo(cfg))

	options := []string{menuDownload, menuFlash, menuErase, menuInfo, menuExit}

	for {
		prompt, selections := menuPrompt("Actions for "+s.Port()+" (CatOS "+s.CurrentVersion()+")", options)

		// Prompt the user for a selection.
		selection, err := c.asker.AskChoice(prompt, selections, strconv.Itoa(len(options)))
		if err != nil {
			return err
		}

		selectionInt, _ := strconv.Atoi(selection)

		switch options[selectionInt-1] {
		case menuDownload:
			err = runOperation(s, printer, func() error { return s.StartDownload(ctx) })
		case menuFlash:
			err = runOperation(s, printer, func() error { return s.StartFlash(ctx) })
		case menuErase:
			err = runOperation(s, printer, func() error { return s.StartErase(ctx, c.confirm) })
		case menuInfo:
			printInfo(os.Stdout, collectInfo(cfg))

			continue
		case menuExit:
			return nil
		default:
		}

		// Failures are reported and the user may retry.
		if err != nil {
			c.reportFailure(ctx, err)
		}

		_, err = c.asker.AskString("Press enter to continue...", "", func(_ string) error { return nil })
		if err != nil {
			return err
		}
	}
}

func (*cmdGlobal) reportFailure(ctx context.Context, err error) {
	var missing *esptool.MissingImageError

	switch {
	case errors.As(err, &missing):
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
	case errors.Is(err, session.ErrOperationInProgress):
		slog.WarnContext(ctx, "An operation is already running")
	default:
		slog.ErrorContext(ctx, err.Error())
	}
}

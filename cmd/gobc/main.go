package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/marcolindberg/gobc"
)

func main() {
	app := cli.NewApp()
	app.Name = "gobc"
	app.Description = "A cycle-accurate Game Boy / Game Boy Color emulator core"
	app.Usage = "gobc [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run headlessly",
			Value: 60,
		},
		cli.StringFlag{
			Name:  "save",
			Usage: "Path to a save RAM file to load before running",
		},
		cli.StringFlag{
			Name:  "save-out",
			Usage: "Path to write battery RAM to after running, if the cartridge has a battery",
		},
		cli.StringFlag{
			Name:  "system",
			Usage: "Hardware variant to emulate: auto, classic, or color",
			Value: "auto",
		},
		cli.BoolFlag{
			Name:  "dump-status",
			Usage: "Print CPU/frame status as JSON after running",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("gobc exited with error", "error", err)
		os.Exit(1)
	}
}

type status struct {
	Frames       uint64 `json:"frames"`
	PC           uint16 `json:"pc"`
	ROMTitle     string `json:"rom_title"`
	ColorSupport bool   `json:"color_support"`
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		cli.ShowAppHelp(c)
		return errors.New("no ROM path provided")
	}

	romPath := c.Args().Get(0)
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}

	system, err := parseSystem(c.String("system"))
	if err != nil {
		return err
	}

	emu := gobc.New(gobc.Config{System: system})

	var saveData []byte
	if savePath := c.String("save"); savePath != "" {
		saveData, err = os.ReadFile(savePath)
		if err != nil {
			return fmt.Errorf("reading save file: %w", err)
		}
	}

	if err := emu.LoadCartridge(rom, saveData); err != nil {
		return fmt.Errorf("loading cartridge: %w", err)
	}

	frames := c.Int("frames")
	if frames <= 0 {
		return errors.New("--frames must be a positive value")
	}

	for i := 0; i < frames; i++ {
		emu.Update()
	}

	if outPath := c.String("save-out"); outPath != "" {
		data, err := emu.SaveRAM()
		if err != nil {
			return fmt.Errorf("generating save data: %w", err)
		}
		if data != nil {
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("writing save file: %w", err)
			}
		} else {
			slog.Warn("cartridge has no battery-backed RAM, nothing to save")
		}
	}

	if c.Bool("dump-status") {
		st := status{
			Frames:       emu.FrameCount(),
			PC:           emu.CPU().Reg.PC,
			ROMTitle:     emu.MMU().Cartridge().Title,
			ColorSupport: emu.MMU().Cartridge().ColorSupported,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	return nil
}

func parseSystem(name string) (gobc.System, error) {
	switch name {
	case "auto", "":
		return gobc.SystemAuto, nil
	case "classic":
		return gobc.SystemClassic, nil
	case "color":
		return gobc.SystemColor, nil
	default:
		return gobc.SystemAuto, fmt.Errorf("unknown --system value %q", name)
	}
}

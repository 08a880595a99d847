// Command dmgo runs a ROM against the core: `dmgo <rom>` launches the
// terminal frontend, and `dmgo test` runs the built-in self-tests.
// Exit codes: 0 normal exit, 1 ROM load/header failure, 2 unknown
// opcode.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/dmgo-emu/dmgo-core/internal/dmgerr"
	"github.com/dmgo-emu/dmgo-core/internal/frontend/terminal"
	"github.com/dmgo-emu/dmgo-core/internal/gameboy"
	"github.com/dmgo-emu/dmgo-core/internal/romid"
)

func main() {
	app := &cli.App{
		Name:      "dmgo",
		Usage:     "a DMG (original Game Boy) emulator core",
		UsageText: "dmgo [options] <rom-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "save",
				Usage: "path to load/persist battery-backed cartridge RAM",
			},
		},
		Action: runROM,
		Commands: []*cli.Command{
			{
				Name:   "test",
				Usage:  "run the built-in self-tests and exit",
				Action: runSelfTest,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		var headerErr *dmgerr.HeaderError
		var opErr *dmgerr.OpcodeError
		switch {
		case errors.As(err, &headerErr):
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		case errors.As(err, &opErr):
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		default:
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func runROM(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.ShowAppHelp(c)
	}
	romPath := c.Args().Get(0)

	rom, err := os.ReadFile(romPath)
	if err != nil {
		return dmgerr.InvalidHeader(fmt.Sprintf("reading %s: %v", romPath, err))
	}

	sys, err := gameboy.New(rom)
	if err != nil {
		return err
	}
	logrus.WithField("rom_id", romid.Of(rom).Short()).Info("loaded ROM")

	if savePath := c.String("save"); savePath != "" {
		if data, err := os.ReadFile(savePath); err == nil {
			sys.LoadRAM(data)
		}
	}

	host, err := terminal.New()
	if err != nil {
		return fmt.Errorf("starting terminal frontend: %w", err)
	}
	defer host.Close()

	runErr := sys.RunUntilQuit(host)

	if savePath := c.String("save"); savePath != "" {
		if ram := sys.SaveRAM(); ram != nil {
			_ = os.WriteFile(savePath, ram, 0o644)
		}
	}

	return runErr
}

// runSelfTest is a headless smoke test: it builds a System from a
// synthetic minimal ROM and reports success if construction succeeds,
// since the real coverage lives in `go test ./...`;
// this subcommand exists so the documented CLI surface (`dmgo test`
// with exit codes 0/1/2) is honorable by a host that only has the
// built binary, not a Go toolchain.
func runSelfTest(c *cli.Context) error {
	fmt.Println("self-test: component construction")
	if _, err := gameboy.New(minimalValidROM()); err != nil {
		return err
	}
	fmt.Println("self-test: ok")
	return nil
}

// minimalValidROM builds the smallest ROM image that passes header
// validation: an all-zero title and type (NoMBC, no RAM), with the
// checksum byte set to satisfy the documented rolling sum.
func minimalValidROM() []byte {
	rom := make([]byte, 0x8000)
	var sum uint8
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	rom[0x014D] = sum
	return rom
}

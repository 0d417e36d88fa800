// dltool is a CLI utility for inspecting and converting distant lights files.
package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/distantlights/internal/config"
	"github.com/Faultbox/distantlights/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.Init(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	t := &tool{cfg: cfg, out: os.Stdout}
	command, rest := args[0], args[1:]

	switch command {
	case "info":
		err = t.info(rest)
	case "cells":
		err = t.cells(rest)
	case "check":
		err = t.check(rest)
	case "toxml", "export":
		err = t.toXML(rest)
	case "fromxml", "import":
		err = t.fromXML(rest)
	case "verify":
		err = t.verify(rest)
	case "config":
		err = t.writeConfig(rest)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(os.Stderr, "Usage: dltool "+usage.String())
		} else {
			logger.Error("command failed", zap.String("command", command), zap.Error(err))
		}
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`dltool - distant lights (.dat) utility

Usage:
  dltool [flags] <command> [options]

Commands:
  info <file.dat>                 Show header, layout and partition summary
  cells <file.dat> [-all]         List grid cells (non-empty only by default)
  check <file.dat>                Validate indices and the cell partition
  toxml <file.dat> [out.xml]      Convert to XML (stdout when no output)
  fromxml <file.xml> <out.dat>    Convert XML back to binary
  verify <file.dat>               Decode, re-encode and compare bytes
  config [path]                   Write the effective config file

Files ending in _hd.dat use the HD layout; all others use the SD layout.

Flags:
  -config <path>   Config file (default ./dltool.yaml or user config dir)
  -debug           Debug logging
  -quiet           Only log errors
  -strict          Partition issues fail the command
  -no-cells        Leave derived cells out of XML output
  -overwrite       Replace existing output files
  -log-file <path> Also write logs to a rotated file

Examples:
  dltool info distantlights_hd.dat
  dltool toxml distantlights.dat distantlights.xml
  dltool -overwrite fromxml distantlights.xml distantlights_hd.dat`)
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"os"
	"time"

	"github.com/Thermoquad/scorpion/pkg/logger"
	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Transaction timing
	readTimeout time.Duration
	settleDelay time.Duration

	configPath string
	logLevel   string
	logJSON    bool
	recordPath string
	replayPath string

	// Set up by PersistentPreRunE
	cfg    *Config
	appLog logger.Logger = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "scorpion",
	Short: "Scorpion plate handler control",
	Long: `Scorpion - A CLI tool for driving Scorpion plate handlers over their
serial command protocol.

Every command connects, checks the instrument answers a version query, runs
and disconnects. Commands are sent one at a time; each reply is awaited
before the next command is written.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]
  Replay:    --replay session.cbor

For WebSocket authentication, the password is read from the SCORPION_PASSWORD
environment variable, or prompted interactively if not set.

Settings can also come from a YAML file given with --config; flags win over
the file. The file may override command mnemonics for other firmware:

  port: /dev/ttyUSB0
  read_timeout: 5s
  commands:
    get_plate: GP

Exit codes:
  0 - Success
  1 - Instrument rejected a command or replied unexpectedly
  2 - Connection error`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()

	// Serial connection flags
	flags.StringVarP(&portName, "port", "p", "", "Serial port device")
	flags.IntVarP(&baudRate, "baud", "b", scorpion.DefaultBaudRate, "Baud rate (serial only)")

	// WebSocket connection flags
	flags.StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	flags.BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	flags.DurationVar(&readTimeout, "read-timeout", scorpion.DefaultReadTimeout, "How long to wait for each reply line")
	flags.DurationVar(&settleDelay, "settle-delay", scorpion.DefaultSettleDelay, "Pause between a command and reading its reply")

	flags.StringVarP(&configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.BoolVar(&logJSON, "log-json", false, "Log as JSON")
	flags.StringVar(&recordPath, "record", "", "Record port traffic to a transcript file")
	flags.StringVar(&replayPath, "replay", "", "Answer from a recorded transcript instead of a port")
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	c.ApplyFlags(cmd.Flags())
	if err := c.Validate(); err != nil {
		return err
	}

	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	appLog = logger.NewSlog(os.Stderr, level, c.Log.JSON)
	cfg = c
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, scorpion.ErrConnect),
		errors.Is(err, scorpion.ErrNotConnected),
		errors.Is(err, errNoTarget):
		return 2
	default:
		return 1
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/spf13/cobra"
)

// param is a setting reachable through get and set. get is nil for
// settings the firmware cannot report.
type param struct {
	name  string
	label string
	get   func(*scorpion.Driver) (string, error)
	set   func(*scorpion.Driver, string) error
}

var params = []param{
	{"transfer", "Transfer position", getInt((*scorpion.Driver).TransferPosition), setInt((*scorpion.Driver).SetTransferPosition)},
	{"arm-safe", "Arm safe position", getInt((*scorpion.Driver).ArmSafePosition), setInt((*scorpion.Driver).SetArmSafePosition)},
	{"drop", "Drop position", getInt((*scorpion.Driver).DropPosition), setInt((*scorpion.Driver).SetDropPosition)},
	{"height", "Plate height", getInt((*scorpion.Driver).PlateHeight), setInt((*scorpion.Driver).SetPlateHeight)},
	{"speed", "Arm speed", getSpeed, setSpeed},
	{"mode", "Mode", nil, setMode},
}

func getInt(fn func(*scorpion.Driver) (int, error)) func(*scorpion.Driver) (string, error) {
	return func(d *scorpion.Driver) (string, error) {
		v, err := fn(d)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(v), nil
	}
}

func setInt(fn func(*scorpion.Driver, int) error) func(*scorpion.Driver, string) error {
	return func(d *scorpion.Driver, value string) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid number %q", value)
		}
		return fn(d, v)
	}
}

func getSpeed(d *scorpion.Driver) (string, error) {
	speed, err := d.ArmSpeed()
	if err != nil {
		return "", err
	}
	return speed.String(), nil
}

func setSpeed(d *scorpion.Driver, value string) error {
	speed, err := parseSpeed(value)
	if err != nil {
		return err
	}
	return d.SetArmSpeed(speed)
}

func setMode(d *scorpion.Driver, value string) error {
	mode, err := parseMode(value)
	if err != nil {
		return err
	}
	return d.SetMode(mode)
}

// parseSpeed accepts a speed name (fast, medium, slow) or its number.
func parseSpeed(value string) (scorpion.Speed, error) {
	for _, s := range []scorpion.Speed{scorpion.SpeedFast, scorpion.SpeedMedium, scorpion.SpeedSlow} {
		if strings.EqualFold(value, s.String()) || value == strconv.Itoa(int(s)) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("invalid speed %q (fast, medium or slow)", value)
}

// parseMode accepts a mode name (unlidded, lidded, lidded-with-delid) or its
// number.
func parseMode(value string) (scorpion.Mode, error) {
	name := strings.ReplaceAll(value, "-", "_")
	for _, m := range []scorpion.Mode{scorpion.ModeUnlidded, scorpion.ModeLidded, scorpion.ModeLiddedWithDelid} {
		if strings.EqualFold(name, m.String()) || value == strconv.Itoa(int(m)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid mode %q (unlidded, lidded or lidded-with-delid)", value)
}

func findParam(name string) (param, bool) {
	for _, p := range params {
		if p.name == name {
			return p, true
		}
	}
	return param{}, false
}

func paramNames(settable bool) []string {
	var names []string
	for _, p := range params {
		if settable || p.get != nil {
			names = append(names, p.name)
		}
	}
	return names
}

var getCmd = &cobra.Command{
	Use:       "get <param>",
	Short:     "Read a setting",
	Long:      "Read a setting from the instrument. Settings: " + strings.Join(paramNames(false), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: paramNames(false),
	RunE:      runGet,
}

var setCmd = &cobra.Command{
	Use:   "set <param> <value>",
	Short: "Change a setting",
	Long: `Change a setting on the instrument.

  transfer, arm-safe, drop   position 0-255
  height                     plate height 1-255
  speed                      fast, medium or slow
  mode                       unlidded, lidded or lidded-with-delid

Values out of range are rejected without contacting the instrument.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: paramNames(true),
	RunE:      runSet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	p, ok := findParam(args[0])
	if !ok || p.get == nil {
		return fmt.Errorf("unknown setting %q (one of: %s)", args[0], strings.Join(paramNames(false), ", "))
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	value, err := p.get(s.driver)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	p, ok := findParam(args[0])
	if !ok {
		return fmt.Errorf("unknown setting %q (one of: %s)", args[0], strings.Join(paramNames(true), ", "))
	}

	// Range and format errors need no connection.
	if err := p.set(scorpion.NewDriver(), args[1]); err != nil && !errors.Is(err, scorpion.ErrNotConnected) {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := p.set(s.driver, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", p.name, args[1])
	return nil
}

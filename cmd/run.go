// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/spf13/cobra"
)

// action is an imperative command the instrument answers with "ok".
type action struct {
	name string
	desc string
	run  func(*scorpion.Driver) error
}

var actions = []action{
	{"initialize", "Home the instrument", (*scorpion.Driver).Initialize},
	{"get", "Move the next plate to the transfer position", (*scorpion.Driver).GetPlate},
	{"replace", "Return the plate to the stack", (*scorpion.Driver).ReplacePlate},
	{"finish", "Finish the run", (*scorpion.Driver).FinishRun},
	{"prime", "Prime the stack", (*scorpion.Driver).PrimeStack},
	{"abort", "Stop the current motion", (*scorpion.Driver).Abort},
	{"test", "Run a test transfer", (*scorpion.Driver).TestTransfer},
	{"jog-target", "Jog the arm to the target position", (*scorpion.Driver).JogToTarget},
	{"jog-home", "Jog the arm home", (*scorpion.Driver).JogToHome},
}

func findAction(name string) (action, bool) {
	for _, a := range actions {
		if a.name == name {
			return a, true
		}
	}
	return action{}, false
}

func actionNames() []string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.name
	}
	return names
}

var runWait bool

var runCmd = &cobra.Command{
	Use:   "run <action>",
	Short: "Run a plate handling action",
	Long: `Send one imperative command and wait for the instrument to accept it.

Actions:
` + actionHelp() + `
If the instrument rejects the command, its error code is queried and shown.
With --wait the status is polled until the motion has finished.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: actionNames(),
	RunE:      runAction,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVarP(&runWait, "wait", "w", false, "Wait until the instrument is no longer busy")
}

func actionHelp() string {
	var b strings.Builder
	for _, a := range actions {
		fmt.Fprintf(&b, "  %-12s %s\n", a.name, a.desc)
	}
	return b.String()
}

func runAction(cmd *cobra.Command, args []string) error {
	a, ok := findAction(args[0])
	if !ok {
		return fmt.Errorf("unknown action %q (one of: %s)", args[0], strings.Join(actionNames(), ", "))
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	if err := a.run(s.driver); err != nil {
		if code, cerr := s.driver.ErrorCode(); cerr == nil {
			fmt.Fprintf(out, "Error: %s\n", scorpion.FormatErrorCode(code))
		}
		return fmt.Errorf("%s: %w", a.name, err)
	}
	fmt.Fprintf(out, "%s: ok\n", a.name)

	if !runWait {
		return nil
	}
	status, err := waitNotBusy(cmd.Context(), s.driver, statusInterval, out)
	if err != nil {
		return err
	}
	return reportStatus(out, s.driver, status)
}

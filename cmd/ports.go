// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Args:  cobra.NoArgs,
	// No connection needed
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE:              runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := scorpion.ListPorts()
	if err != nil {
		return fmt.Errorf("failed to list serial ports: %w", err)
	}

	if len(ports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show firmware version, status and settings",
	Long: `Connect to the instrument and print its firmware version, status,
last error code and every readable setting.`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	d := s.driver
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Connection:        %s\n", s.info)
	fmt.Fprintf(out, "Firmware:          %s\n", d.FirmwareVersion())

	status, err := d.Status()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Status:            %s\n", scorpion.FormatStatus(status))

	code, err := d.ErrorCode()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Error:             %s\n", scorpion.FormatErrorCode(code))

	for _, p := range params {
		if p.get == nil {
			continue
		}
		value, err := p.get(d)
		if err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
		fmt.Fprintf(out, "%-18s %s\n", p.label+":", value)
	}
	return nil
}

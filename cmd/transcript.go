// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Thermoquad/scorpion/pkg/transcript"
	"github.com/spf13/cobra"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript <file>",
	Short: "Display a recorded transcript in human-readable format",
	Long: `Print the port traffic captured with --record, one chunk per line,
with its timestamp and direction. Control characters are escaped so line
terminators stay visible.

The file can be answered back with --replay.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscript,
}

func init() {
	rootCmd.AddCommand(transcriptCmd)
}

func runTranscript(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	records, err := transcript.Load(f)
	if err != nil {
		return err
	}
	printTranscript(cmd.OutOrStdout(), records)
	return nil
}

func printTranscript(out io.Writer, records []transcript.Record) {
	var sent, received int
	for _, r := range records {
		arrow := ">"
		if r.Dir == transcript.Inbound {
			arrow = "<"
			received += len(r.Data)
		} else {
			sent += len(r.Data)
		}
		fmt.Fprintf(out, "[%s] %s %s\n", r.Time().Format("15:04:05.000"), arrow, strconv.Quote(string(r.Data)))
	}
	fmt.Fprintf(out, "\n%d records, %d bytes sent, %d bytes received\n", len(records), sent, received)
}

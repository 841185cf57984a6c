// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/spf13/cobra"
)

var (
	pingCount int
	pingDelay time.Duration
)

var errPingLoss = errors.New("one or more pings failed")

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the link by sending version requests",
	Long: `Send the version request repeatedly and report round-trip times.

This is useful for verifying:
  - The port or WebSocket bridge is reachable
  - Baud rate and line settings match the instrument
  - The instrument answers consistently

Exit codes:
  0 - All pings answered
  1 - One or more pings failed or timed out
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
	pingCmd.Flags().DurationVar(&pingDelay, "delay", 100*time.Millisecond, "Pause between pings")
}

func runPing(cmd *cobra.Command, args []string) error {
	if pingCount <= 0 {
		return fmt.Errorf("--count must be positive, got %d", pingCount)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scorpion - Ping\n")
	fmt.Fprintf(out, "Connection: %s\n", s.info)
	fmt.Fprintf(out, "Count: %d pings\n\n", pingCount)

	failed := pingLoop(out, s.driver, pingCount, pingDelay)

	fmt.Fprintf(out, "\n--- Ping statistics ---\n")
	fmt.Fprintf(out, "%d pings sent, %d answered, %.0f%% loss\n",
		pingCount, pingCount-failed, float64(failed)/float64(pingCount)*100)
	if avg := s.stats.AverageLatency(); avg > 0 {
		fmt.Fprintf(out, "average latency %v\n", avg.Round(time.Millisecond))
	}

	if failed > 0 {
		return errPingLoss
	}
	return nil
}

// pingLoop sends count version requests and returns how many failed.
func pingLoop(out io.Writer, d *scorpion.Driver, count int, delay time.Duration) int {
	failed := 0
	for i := 1; i <= count; i++ {
		fmt.Fprintf(out, "Ping %d/%d: ", i, count)

		start := time.Now()
		version, err := d.Version()
		if err != nil {
			fmt.Fprintf(out, "FAILED: %v\n", err)
			failed++
		} else {
			fmt.Fprintf(out, "firmware %s, rtt=%v\n", version, time.Since(start).Round(time.Millisecond))
		}

		if i < count {
			time.Sleep(delay)
		}
	}
	return failed
}

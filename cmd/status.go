// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/spf13/cobra"
)

var (
	statusWait     bool
	statusInterval time.Duration
	statusTimeout  time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show instrument status",
	Long: `Query the instrument status. When the status is ERROR the error code
is queried too.

With --wait the status is polled until the instrument is no longer BUSY.

Exit codes:
  0 - Status read (and not ERROR)
  1 - Instrument reports ERROR, or a query failed
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVarP(&statusWait, "wait", "w", false, "Poll until the instrument is not busy")
	statusCmd.Flags().DurationVar(&statusInterval, "interval", time.Second, "Polling interval for --wait")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 5*time.Minute, "Give up waiting after this long")
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var status scorpion.StatusCode
	if statusWait {
		ctx, cancel := context.WithTimeout(ctx, statusTimeout)
		defer cancel()
		status, err = waitNotBusy(ctx, s.driver, statusInterval, cmd.OutOrStdout())
	} else {
		status, err = s.driver.Status()
	}
	if err != nil {
		return err
	}

	return reportStatus(cmd.OutOrStdout(), s.driver, status)
}

// waitNotBusy polls until the status is anything but BUSY.
func waitNotBusy(ctx context.Context, d *scorpion.Driver, interval time.Duration, out io.Writer) (scorpion.StatusCode, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := d.Status()
		if err != nil {
			return status, err
		}
		if status != scorpion.StatusBusy {
			return status, nil
		}
		fmt.Fprintf(out, "[%s] busy\n", time.Now().Format("15:04:05"))

		select {
		case <-ctx.Done():
			return status, fmt.Errorf("still busy: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// reportStatus prints status, adding the error code when the instrument is
// in ERROR. An ERROR status is returned as an error.
func reportStatus(out io.Writer, d *scorpion.Driver, status scorpion.StatusCode) error {
	fmt.Fprintf(out, "Status: %s\n", scorpion.FormatStatus(status))
	if status != scorpion.StatusError {
		return nil
	}

	code, err := d.ErrorCode()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Error:  %s\n", scorpion.FormatErrorCode(code))
	return fmt.Errorf("instrument error %s", code)
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/scorpion/internal/metrics"
	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/spf13/cobra"
)

var (
	monitorInterval    time.Duration
	monitorDuration    time.Duration
	monitorMetricsAddr string
	monitorVerbose     bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll instrument status and report changes",
	Long: `Poll the instrument status at a fixed interval and print every change.
When the status is ERROR the error code is read and printed too.

If the instrument stops answering, polling backs off through a circuit
breaker and the connection is reopened once it answers again.

With --metrics-addr the status, error code and transaction counters are
served for Prometheus at /metrics.

Press Ctrl+C to stop; statistics are printed on exit.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 2*time.Second, "Polling interval")
	monitorCmd.Flags().DurationVar(&monitorDuration, "duration", 0, "Stop after this long (0 = until interrupted)")
	monitorCmd.Flags().StringVar(&monitorMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9477)")
	monitorCmd.Flags().BoolVarP(&monitorVerbose, "verbose", "v", false, "Print every poll, not only changes")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	exporter := metrics.NewExporter()

	s, err := openSession(
		scorpion.WithBreaker(scorpion.DefaultBreakerSettings("scorpion-monitor", cfg.BreakerTimeout)),
		scorpion.WithTransactionHook(exporter.ObserveTransaction),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if monitorDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, monitorDuration)
		defer cancel()
	}

	if monitorMetricsAddr != "" {
		go func() {
			if err := exporter.Serve(ctx, monitorMetricsAddr); err != nil {
				appLog.Error("metrics server failed", "addr", monitorMetricsAddr, "err", err)
			}
		}()
		appLog.Info("serving metrics", "addr", monitorMetricsAddr)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scorpion - Status Monitor\n")
	fmt.Fprintf(out, "Connection: %s, firmware %s\n", s.info, s.driver.FirmwareVersion())
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	mon := &monitor{s: s, exporter: exporter, out: out, verbose: monitorVerbose}
	mon.run(ctx, monitorInterval)

	fmt.Fprintln(out)
	fmt.Fprint(out, s.stats.String())
	return nil
}

// monitor polls one instrument and reports status changes.
type monitor struct {
	s        *session
	exporter *metrics.Exporter
	out      io.Writer
	verbose  bool

	last      scorpion.StatusCode
	hasLast   bool
	lastCode  scorpion.ErrorCode
	connected bool
}

func (m *monitor) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.connected = true
	m.exporter.SetConnected(true)
	for {
		m.poll()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll runs one status cycle. After the link is lost each cycle tries to
// reopen it instead.
func (m *monitor) poll() {
	d := m.s.driver
	defer func() {
		if state, ok := d.BreakerState(); ok {
			m.exporter.SetBreakerState(state)
		}
	}()

	if !m.connected {
		if err := d.Open(m.s.target); err != nil {
			appLog.Debug("reconnect failed", "target", m.s.target, "err", err)
			return
		}
		m.connected = true
		m.exporter.SetConnected(true)
		m.printf("reconnected, firmware %s", d.FirmwareVersion())
	}

	status, err := d.Status()
	if err != nil {
		m.fail(err)
		return
	}
	m.exporter.SetStatus(status)

	changed := !m.hasLast || status != m.last
	m.last, m.hasLast = status, true

	if status != scorpion.StatusError {
		if changed || m.verbose {
			m.printf("%s", scorpion.FormatStatus(status))
		}
		return
	}

	code, err := d.ErrorCode()
	if err != nil {
		m.fail(err)
		return
	}
	m.exporter.SetErrorCode(code)
	if changed || code != m.lastCode || m.verbose {
		m.printf("%s: %s", scorpion.FormatStatus(status), scorpion.FormatErrorCode(code))
	}
	m.lastCode = code
}

func (m *monitor) fail(err error) {
	m.printf("! %v", err)
	if errors.Is(err, scorpion.ErrCircuitOpen) && m.connected {
		m.connected = false
		m.hasLast = false
		m.exporter.SetConnected(false)
		m.printf("instrument not answering, reconnecting")
	}
}

func (m *monitor) printf(format string, args ...any) {
	fmt.Fprintf(m.out, "[%s] %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var controlInterval time.Duration

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for operating the plate handler",
	Long: `Operate the plate handler via an interactive terminal UI.

Features:
  - Live status and error code, polled in the background
  - Plate handling actions (get, replace, initialize, abort, ...)
  - Setting changes and raw commands from the input line
  - Transaction statistics
  - Event log
  - Automatic reconnection when the instrument stops answering

Tab switches between the action list and the input line. In the input line,
"<setting> <value>" changes a setting (e.g. "transfer 120") and anything else
is sent as a raw command. x aborts the current motion from the action list.

Supports serial, WebSocket and replay connections.`,
	Args: cobra.NoArgs,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
	controlCmd.Flags().DurationVar(&controlInterval, "interval", 2*time.Second, "Status polling interval")
}

// controller serializes driver access between polling and user actions,
// and owns reconnection.
type controller struct {
	mu sync.Mutex
	s  *session

	// reconnecting is only touched from the Bubble Tea update loop
	reconnecting bool
}

func (c *controller) do(fn func(*scorpion.Driver) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.s.driver)
}

// reconnect reopens the session target with exponential backoff until it
// succeeds or ctx ends.
func (c *controller) reconnect(ctx context.Context) (string, error) {
	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}

		var version string
		err := c.do(func(d *scorpion.Driver) error {
			if err := d.Open(c.s.target); err != nil {
				return err
			}
			version = d.FirmwareVersion()
			return nil
		})
		if err == nil {
			return version, nil
		}
		appLog.Debug("reconnect failed", "target", c.s.target, "err", err)

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func runControl(cmd *cobra.Command, args []string) error {
	var p *tea.Program

	s, err := openSession(
		scorpion.WithBreaker(scorpion.DefaultBreakerSettings("scorpion-control", cfg.BreakerTimeout)),
		scorpion.WithTransactionHook(func(tx scorpion.Transaction) {
			if p != nil {
				p.Send(transactionMsg(tx))
			}
		}),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ctl := &controller{s: s}
	m := initialControlModel(ctx, ctl, controlInterval)

	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

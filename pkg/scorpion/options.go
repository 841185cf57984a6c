// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scorpion

import (
	"time"

	"github.com/Thermoquad/scorpion/pkg/logger"
	"github.com/sony/gobreaker/v2"
)

// Option configures a Driver.
type Option func(*Driver)

// WithBaudRate sets the serial baud rate. Default 9600.
func WithBaudRate(baud int) Option {
	return func(d *Driver) {
		if baud > 0 {
			d.baudRate = baud
		}
	}
}

// WithReadTimeout sets how long to wait for each reply line. Default 3s.
func WithReadTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		if timeout > 0 {
			d.readTimeout = timeout
		}
	}
}

// WithSettleDelay sets the pause between writing a command and reading its
// reply. Zero disables it. Default 500ms.
func WithSettleDelay(delay time.Duration) Option {
	return func(d *Driver) {
		if delay >= 0 {
			d.settleDelay = delay
		}
	}
}

// WithMaxDiscardedLines bounds the echoes and blank lines skipped while
// waiting for a reply. Default 16.
func WithMaxDiscardedLines(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.maxDiscarded = n
		}
	}
}

// WithLogger sets the logger. Default discards.
func WithLogger(l logger.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithCommandSet replaces the mnemonic table.
func WithCommandSet(cs CommandSet) Option {
	return func(d *Driver) {
		d.commands = cs
	}
}

// WithOpener replaces how ports are opened. Default SerialOpener.
func WithOpener(open Opener) Option {
	return func(d *Driver) {
		if open != nil {
			d.opener = open
		}
	}
}

// WithStatistics records every transaction into stats.
func WithStatistics(stats *Statistics) Option {
	return func(d *Driver) {
		d.stats = stats
	}
}

// WithTransactionHook calls fn after every completed transaction.
func WithTransactionHook(fn func(Transaction)) Option {
	return func(d *Driver) {
		if fn != nil {
			d.hooks = append(d.hooks, fn)
		}
	}
}

// WithBreaker guards transactions with a circuit breaker. Only transport
// failures count against it; instrument replies such as "err" do not.
func WithBreaker(settings gobreaker.Settings) Option {
	return func(d *Driver) {
		settings.IsSuccessful = func(err error) bool {
			return !IsTransportError(err)
		}
		d.breaker = gobreaker.NewCircuitBreaker[string](settings)
	}
}

// DefaultBreakerSettings trips after three consecutive transport failures
// and probes again after timeout.
func DefaultBreakerSettings(name string, timeout time.Duration) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
}

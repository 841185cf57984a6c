// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scorpion

import (
	"fmt"
	"time"

	"github.com/Thermoquad/scorpion/pkg/logger"
	"github.com/sony/gobreaker/v2"
)

// Driver owns the connection to one instrument.
//
// All operations block until the instrument answers or the read timeout
// expires. A Driver must not be used from more than one goroutine at a time.
type Driver struct {
	opener       Opener
	baudRate     int
	readTimeout  time.Duration
	settleDelay  time.Duration
	maxDiscarded int
	commands     CommandSet
	logger       logger.Logger
	stats        *Statistics
	breaker      *gobreaker.CircuitBreaker[string]
	hooks        []func(Transaction)

	channel  *lineChannel
	portName string
	state    ConnState
	version  string
}

// NewDriver creates a disconnected driver.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{
		opener:       SerialOpener,
		baudRate:     DefaultBaudRate,
		readTimeout:  DefaultReadTimeout,
		settleDelay:  DefaultSettleDelay,
		maxDiscarded: DefaultMaxDiscardedLines,
		commands:     DefaultCommandSet(),
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Connect opens portName and checks the instrument answers a version query.
// Any failure leaves the driver disconnected with the port closed and is
// reported only as false; use Open to get the reason.
func (d *Driver) Connect(portName string) bool {
	return d.Open(portName) == nil
}

// Open is Connect returning why the attempt failed. Errors wrap ErrConnect.
// An existing connection is closed first.
func (d *Driver) Open(portName string) error {
	d.Disconnect()

	port, err := d.opener(portName, d.baudRate)
	if err != nil {
		d.logger.Warn("open failed", "port", portName, "err", err)
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	channel, err := newLineChannel(port, d.readTimeout)
	if err != nil {
		port.Close()
		d.logger.Warn("open failed", "port", portName, "err", err)
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}
	d.channel = channel
	d.portName = portName

	var version string
	err = d.roundTrip(d.commands.Version, d.commands.VersionReply, func(r Response) error {
		version = r.Value
		return nil
	})
	if err != nil {
		d.logger.Warn("liveness probe failed", "port", portName, "err", err)
		d.release()
		return fmt.Errorf("%w: %s: %w", ErrConnect, portName, err)
	}

	d.state = Connected
	d.version = version
	d.logger.Info("connected", "port", portName, "baud", d.baudRate, "version", version)
	return nil
}

// Disconnect closes the port if one is open. Safe to call at any time.
func (d *Driver) Disconnect() {
	_ = d.release()
}

// Close disconnects and reports any error from closing the port.
func (d *Driver) Close() error {
	return d.release()
}

func (d *Driver) release() error {
	if d.channel == nil {
		return nil
	}
	err := d.channel.Close()
	if err != nil {
		d.logger.Warn("close failed", "port", d.portName, "err", err)
	}
	if d.state == Connected {
		d.logger.Info("disconnected", "port", d.portName)
	}
	d.channel = nil
	d.state = Disconnected
	d.version = ""
	return err
}

// Connected reports whether the last connect succeeded and no disconnect
// has happened since.
func (d *Driver) Connected() bool {
	return d.state == Connected
}

// State returns the connection state.
func (d *Driver) State() ConnState {
	return d.state
}

// PortName returns the port of the current or last connection.
func (d *Driver) PortName() string {
	return d.portName
}

// FirmwareVersion returns the version reported by the liveness probe.
func (d *Driver) FirmwareVersion() string {
	return d.version
}

// Commands returns the mnemonic table in use.
func (d *Driver) Commands() CommandSet {
	return d.commands
}

// Statistics returns the attached statistics, or nil.
func (d *Driver) Statistics() *Statistics {
	return d.stats
}

// BreakerState returns the circuit breaker state; ok is false when no
// breaker is configured.
func (d *Driver) BreakerState() (state gobreaker.State, ok bool) {
	if d.breaker == nil {
		return gobreaker.StateClosed, false
	}
	return d.breaker.State(), true
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scorpion

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Transaction describes one command and the reply it resolved to.
type Transaction struct {
	Command  string
	Response string
	Echoes   int // echoed command lines discarded
	Blanks   int // empty lines discarded
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Transact sends a raw command line and returns the instrument's reply,
// without interpreting it.
func (d *Driver) Transact(command string) (string, error) {
	if d.state != Connected {
		return "", ErrNotConnected
	}

	tx := Transaction{Command: command, Started: time.Now()}
	line, err := d.transact(&tx)
	d.finish(&tx, err)
	return line, err
}

// roundTrip performs a transaction, classifies the reply against prefix and
// hands value replies to decode. With an empty prefix and a nil decode the
// reply must be the success sentinel.
func (d *Driver) roundTrip(command, prefix string, decode func(Response) error) error {
	tx := Transaction{Command: command, Started: time.Now()}

	line, err := d.transact(&tx)
	if err == nil {
		resp := Classify(line, prefix)
		want := ResponseValue
		if decode == nil {
			want = ResponseSuccess
		}
		err = resp.expect(command, want)
		if err == nil && decode != nil {
			err = decode(resp)
		}
	}

	d.finish(&tx, err)
	return err
}

// transact runs the exchange, through the breaker if one is configured.
func (d *Driver) transact(tx *Transaction) (string, error) {
	if d.channel == nil {
		return "", ErrNotConnected
	}
	if d.breaker == nil {
		return d.exchange(tx)
	}

	line, err := d.breaker.Execute(func() (string, error) {
		return d.exchange(tx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	return line, err
}

// exchange writes the command, waits the settle delay, then reads until a
// line arrives that is neither the echo of the command nor empty.
func (d *Driver) exchange(tx *Transaction) (string, error) {
	if err := d.channel.WriteLine(tx.Command); err != nil {
		return "", err
	}

	if d.settleDelay > 0 {
		time.Sleep(d.settleDelay)
	}

	for {
		line, err := d.channel.ReadLine()
		if err != nil {
			return "", err
		}

		switch line {
		case "":
			tx.Blanks++
		case tx.Command:
			tx.Echoes++
		default:
			tx.Response = line
			return line, nil
		}

		if tx.Echoes+tx.Blanks > d.maxDiscarded {
			return "", fmt.Errorf("%w: discarded %d lines after %q", ErrTimeout, tx.Echoes+tx.Blanks, tx.Command)
		}
	}
}

func (d *Driver) finish(tx *Transaction, err error) {
	tx.Duration = time.Since(tx.Started)
	tx.Err = err

	if err != nil {
		d.logger.Debug("transaction failed", "command", tx.Command, "response", tx.Response,
			"echoes", tx.Echoes, "blanks", tx.Blanks, "err", err)
	} else {
		d.logger.Debug("transaction", "command", tx.Command, "response", tx.Response,
			"echoes", tx.Echoes, "blanks", tx.Blanks, "duration", tx.Duration)
	}

	if d.stats != nil {
		d.stats.Record(*tx)
	}
	for _, hook := range d.hooks {
		hook(*tx)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scorpion

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Port is the byte-level link to the instrument. A Read that times out must
// return (0, nil), which is how go.bug.st/serial reports an expired read
// timeout.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Opener opens a Port by name at the given baud rate.
type Opener func(portName string, baudRate int) (Port, error)

// SerialOpener opens a local serial device, 8N1.
func SerialOpener(portName string, baudRate int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return port, nil
}

// ListPorts returns the serial devices present on this machine.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// lineChannel turns a Port into a CR-delimited line reader/writer with a
// per-line timeout.
type lineChannel struct {
	port    Port
	timeout time.Duration
	pending []byte // bytes received past the last returned line
	chunk   []byte
}

func newLineChannel(port Port, timeout time.Duration) (*lineChannel, error) {
	if err := port.SetReadTimeout(timeout); err != nil {
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	return &lineChannel{
		port:    port,
		timeout: timeout,
		pending: make([]byte, 0, 64),
		chunk:   make([]byte, 64),
	}, nil
}

// WriteLine sends line followed by the terminator.
func (c *lineChannel) WriteLine(line string) error {
	if _, err := c.port.Write([]byte(line + LineTerminator)); err != nil {
		return fmt.Errorf("write %q: %w", line, err)
	}
	return nil
}

// ReadLine returns the next line without its terminator. Stray line feeds
// from CRLF devices are trimmed. Returns ErrTimeout if no complete line
// arrives within the channel timeout.
func (c *lineChannel) ReadLine() (string, error) {
	deadline := time.Now().Add(c.timeout)
	for {
		if i := bytes.IndexByte(c.pending, LineTerminator[0]); i >= 0 {
			line := strings.Trim(string(c.pending[:i]), "\n")
			c.pending = append(c.pending[:0], c.pending[i+1:]...)
			return line, nil
		}

		if !time.Now().Before(deadline) {
			return "", ErrTimeout
		}

		n, err := c.port.Read(c.chunk)
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
		c.pending = append(c.pending, c.chunk[:n]...)
	}
}

// Close releases the underlying port.
func (c *lineChannel) Close() error {
	c.pending = c.pending[:0]
	return c.port.Close()
}

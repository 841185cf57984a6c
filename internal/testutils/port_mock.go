// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package testutils provides scripted stand-ins for the instrument link.
package testutils

import (
	"strings"
	"sync"
	"time"
)

// PortMock is a scriptable serial port. Reads drain a queue of chunks; an
// empty queue blocks for the read timeout and returns (0, nil), like a real
// serial port whose read timeout expired.
type PortMock struct {
	mu      sync.Mutex
	reads   []string
	writes  []string
	replies map[string][][]string
	timeout time.Duration
	closed  bool

	// Echo queues the written line back before any scripted reply.
	Echo bool

	ReadErr    error
	WriteErr   error
	TimeoutErr error
}

// NewPortMock creates a mock whose reads return the given chunks in order.
func NewPortMock(chunks ...string) *PortMock {
	return &PortMock{
		reads:   chunks,
		replies: make(map[string][][]string),
		timeout: 10 * time.Millisecond,
	}
}

// Reply scripts the lines sent back when command is written. Each call adds
// one reply; repeated writes of the same command consume them in order, and
// the last one is reused once the script runs out.
func (m *PortMock) Reply(command string, lines ...string) *PortMock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[command] = append(m.replies[command], lines)
	return m
}

// Queue appends raw chunks to the read queue.
func (m *PortMock) Queue(chunks ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, chunks...)
}

func (m *PortMock) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.ReadErr != nil {
		m.mu.Unlock()
		return 0, m.ReadErr
	}
	if len(m.reads) == 0 {
		timeout := m.timeout
		m.mu.Unlock()
		time.Sleep(timeout)
		return 0, nil
	}
	defer m.mu.Unlock()

	n := copy(p, m.reads[0])
	if n < len(m.reads[0]) {
		m.reads[0] = m.reads[0][n:]
	} else {
		m.reads = m.reads[1:]
	}
	return n, nil
}

func (m *PortMock) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}

	m.writes = append(m.writes, string(p))

	line := strings.TrimRight(string(p), "\r\n")
	if m.Echo {
		m.reads = append(m.reads, line+"\r")
	}
	if script, ok := m.replies[line]; ok {
		for _, reply := range script[0] {
			m.reads = append(m.reads, reply+"\r")
		}
		if len(script) > 1 {
			m.replies[line] = script[1:]
		}
	}
	return len(p), nil
}

func (m *PortMock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *PortMock) SetReadTimeout(t time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TimeoutErr != nil {
		return m.TimeoutErr
	}
	m.timeout = t
	return nil
}

// Written returns the raw bytes of every write, in order.
func (m *PortMock) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}

// Closed reports whether Close was called.
func (m *PortMock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ReadTimeout returns the last timeout set on the port.
func (m *PortMock) ReadTimeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeout
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transcript

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
)

// ErrDiverged is returned when the host writes something other than what
// the transcript recorded next.
var ErrDiverged = errors.New("transcript: write does not match recording")

// Player is a scorpion.Port that answers from a transcript. Inbound records
// are only released once the outbound record before them has been written,
// so replies arrive after the command that produced them.
type Player struct {
	mu      sync.Mutex
	records []Record
	pos     int
	offset  int // bytes of records[pos] already read
	timeout time.Duration
	closed  bool
	lenient bool
}

var _ scorpion.Port = (*Player)(nil)

// NewPlayer replays records. When lenient is set, writes are not compared
// against the recording.
func NewPlayer(records []Record, lenient bool) *Player {
	return &Player{
		records: records,
		timeout: scorpion.DefaultReadTimeout,
		lenient: lenient,
	}
}

// ReplayOpener returns an Opener that hands out a fresh Player over records
// for every open, ignoring the port name and baud rate.
func ReplayOpener(records []Record, lenient bool) scorpion.Opener {
	return func(string, int) (scorpion.Port, error) {
		return NewPlayer(records, lenient), nil
	}
}

func (p *Player) Read(buf []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, errors.New("transcript: player closed")
	}
	if p.pos >= len(p.records) || p.records[p.pos].Dir != Inbound {
		timeout := p.timeout
		p.mu.Unlock()
		time.Sleep(timeout)
		return 0, nil
	}
	defer p.mu.Unlock()

	data := p.records[p.pos].Data[p.offset:]
	n := copy(buf, data)
	if n < len(data) {
		p.offset += n
	} else {
		p.pos++
		p.offset = 0
	}
	return n, nil
}

func (p *Player) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("transcript: player closed")
	}

	// Replies the host never read are dropped.
	for p.pos < len(p.records) && p.records[p.pos].Dir == Inbound {
		p.pos++
		p.offset = 0
	}
	if p.pos >= len(p.records) {
		return 0, fmt.Errorf("%w: %q written after end of transcript", ErrDiverged, buf)
	}

	want := p.records[p.pos].Data
	if !p.lenient && !bytes.Equal(want, buf) {
		return 0, fmt.Errorf("%w: wrote %q, recorded %q", ErrDiverged, buf, want)
	}
	p.pos++
	return len(buf), nil
}

func (p *Player) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = t
	return nil
}

func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Remaining returns how many records have not been replayed yet.
func (p *Player) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records) - p.pos
}

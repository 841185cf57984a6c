// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transcript

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/fxamacker/cbor/v2"
)

// Recorder is a scorpion.Port that copies all traffic of the wrapped port
// to a transcript.
type Recorder struct {
	port scorpion.Port
	out  io.Writer

	mu  sync.Mutex
	enc *cbor.Encoder
	err error
}

var _ scorpion.Port = (*Recorder)(nil)

// NewRecorder records traffic of port to w. If w is an io.Closer it is
// closed together with the port.
func NewRecorder(port scorpion.Port, w io.Writer) *Recorder {
	return &Recorder{
		port: port,
		out:  w,
		enc:  cbor.NewEncoder(w),
	}
}

// RecordingOpener wraps open so every port it returns is recorded to w.
func RecordingOpener(open scorpion.Opener, w io.Writer) scorpion.Opener {
	return func(portName string, baudRate int) (scorpion.Port, error) {
		port, err := open(portName, baudRate)
		if err != nil {
			return nil, err
		}
		return &Recorder{port: port, enc: cbor.NewEncoder(w)}, nil
	}
}

func (r *Recorder) Read(p []byte) (int, error) {
	n, err := r.port.Read(p)
	if n > 0 {
		r.record(Inbound, p[:n])
	}
	return n, err
}

func (r *Recorder) Write(p []byte) (int, error) {
	r.record(Outbound, p)
	return r.port.Write(p)
}

func (r *Recorder) SetReadTimeout(t time.Duration) error {
	return r.port.SetReadTimeout(t)
}

// Close closes the port, then the transcript writer when it owns one.
func (r *Recorder) Close() error {
	err := r.port.Close()
	if c, ok := r.out.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Err returns the first error hit while writing the transcript. Recording
// failures never fail the traffic itself.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) record(dir Direction, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}

	rec := Record{
		Dir:  dir,
		At:   time.Now().UnixNano(),
		Data: append([]byte(nil), data...),
	}
	if err := r.enc.Encode(rec); err != nil {
		r.err = fmt.Errorf("failed to write transcript: %w", err)
	}
}

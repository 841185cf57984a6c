// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transcript records the bytes exchanged with an instrument and
// plays them back as a port, so sessions can be inspected and rerun
// without hardware.
//
// A transcript is a sequence of CBOR-encoded records, one per read or
// write, in the order they happened.
package transcript

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction tells which side sent a record's bytes.
type Direction uint8

const (
	Outbound Direction = 1 // host to instrument
	Inbound  Direction = 2 // instrument to host
)

func (d Direction) String() string {
	switch d {
	case Outbound:
		return ">"
	case Inbound:
		return "<"
	default:
		return "?"
	}
}

// Record is one chunk of traffic.
type Record struct {
	Dir  Direction `cbor:"1,keyasint"`
	At   int64     `cbor:"2,keyasint"` // unix nanoseconds
	Data []byte    `cbor:"3,keyasint"`
}

// Time returns when the record was captured.
func (r Record) Time() time.Time {
	return time.Unix(0, r.At)
}

// Load decodes every record from r.
func Load(r io.Reader) ([]Record, error) {
	dec := cbor.NewDecoder(r)

	var records []Record
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("failed to decode record %d: %w", len(records), err)
		}
		if rec.Dir != Outbound && rec.Dir != Inbound {
			return records, fmt.Errorf("record %d: invalid direction %d", len(records), rec.Dir)
		}
		records = append(records, rec)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scorpion

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatistics_Record(t *testing.T) {
	s := NewStatistics()

	s.Record(Transaction{Command: "G", Response: "ok", Echoes: 1, Blanks: 2, Duration: 10 * time.Millisecond})
	s.Record(Transaction{Command: "G", Err: fmt.Errorf("G: %w", ErrRequest), Duration: 20 * time.Millisecond})
	s.Record(Transaction{Command: "?", Err: ErrTimeout})
	s.Record(Transaction{Command: "?", Err: &UnexpectedResponseError{Request: "?", Response: "x"}})
	s.Record(Transaction{Command: "?", Err: fmt.Errorf("%w: open", ErrCircuitOpen)})
	s.Record(Transaction{Command: "?", Err: errors.New("read: device gone")})
	s.RecordValidation()

	assert.Equal(t, uint64(6), s.Transactions)
	assert.Equal(t, uint64(1), s.Successful)
	assert.Equal(t, uint64(1), s.DeviceErrors)
	assert.Equal(t, uint64(1), s.Timeouts)
	assert.Equal(t, uint64(1), s.UnexpectedResponses)
	assert.Equal(t, uint64(1), s.CircuitRejections)
	assert.Equal(t, uint64(1), s.TransportErrors)
	assert.Equal(t, uint64(1), s.ValidationErrors)
	assert.Equal(t, uint64(5), s.Errors())
	assert.Equal(t, uint64(1), s.EchoesDiscarded)
	assert.Equal(t, uint64(2), s.BlanksDiscarded)
	assert.Equal(t, 5*time.Millisecond, s.AverageLatency())
}

func TestStatistics_StringAndReset(t *testing.T) {
	s := NewStatistics()
	assert.Equal(t, time.Duration(0), s.AverageLatency())

	s.Record(Transaction{Command: "G", Err: ErrTimeout})
	out := s.String()
	assert.True(t, strings.HasPrefix(out, "=== Statistics"))
	assert.Contains(t, out, "Timeouts:")
	assert.NotContains(t, out, "Device Errors:")

	s.Reset()
	assert.Zero(t, s.Transactions)
	assert.Zero(t, s.Timeouts)
}

func TestFormatTransaction(t *testing.T) {
	started := time.Date(2025, 3, 1, 14, 5, 9, 123_000_000, time.UTC)

	line := FormatTransaction(Transaction{
		Command: "P1", Response: "P1=42", Echoes: 1, Blanks: 1,
		Started: started, Duration: 512 * time.Millisecond,
	})
	assert.True(t, strings.HasPrefix(line, "[14:05:09.123] > P1"))
	assert.Contains(t, line, "< P1=42")
	assert.Contains(t, line, "(512ms, skipped 1 echo/1 blank)")

	line = FormatTransaction(Transaction{Command: "?", Started: started, Err: ErrTimeout})
	assert.Contains(t, line, "! "+ErrTimeout.Error())
	assert.NotContains(t, line, "<")
}

func TestFormatStatusAndErrorCode(t *testing.T) {
	assert.Equal(t, "BUSY - motion in progress", FormatStatus(StatusBusy))
	assert.Equal(t, "UNKNOWN (7)", FormatStatus(StatusCode(7)))
	assert.Contains(t, FormatErrorCode(ErrorConveyerJam), "CONVEYER_JAM")
	assert.Equal(t, "UNKNOWN (42)", FormatErrorCode(ErrorCode(42)))
}

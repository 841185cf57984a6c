// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scorpion

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks transaction counts and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	Transactions        uint64
	Successful          uint64
	EchoesDiscarded     uint64
	BlanksDiscarded     uint64
	Timeouts            uint64
	TransportErrors     uint64
	DeviceErrors        uint64
	UnexpectedResponses uint64
	ValidationErrors    uint64
	CircuitRejections   uint64
	TotalLatency        time.Duration

	// Rates (calculated)
	TransactionRate float64 // transactions/sec
	ErrorRate       float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Record updates statistics from a completed transaction
func (s *Statistics) Record(tx Transaction) {
	s.Transactions++
	s.EchoesDiscarded += uint64(tx.Echoes)
	s.BlanksDiscarded += uint64(tx.Blanks)
	s.TotalLatency += tx.Duration

	var unexpected *UnexpectedResponseError
	switch err := tx.Err; {
	case err == nil:
		s.Successful++
	case errors.Is(err, ErrCircuitOpen):
		s.CircuitRejections++
	case errors.Is(err, ErrTimeout):
		s.Timeouts++
	case errors.Is(err, ErrRequest):
		s.DeviceErrors++
	case errors.As(err, &unexpected):
		s.UnexpectedResponses++
	default:
		s.TransportErrors++
	}

	s.LastUpdateTime = time.Now()
}

// RecordValidation counts a parameter rejected before it reached the wire
func (s *Statistics) RecordValidation() {
	s.ValidationErrors++
	s.LastUpdateTime = time.Now()
}

// Errors returns the number of failed transactions
func (s *Statistics) Errors() uint64 {
	return s.Timeouts + s.TransportErrors + s.DeviceErrors + s.UnexpectedResponses + s.CircuitRejections
}

// AverageLatency returns the mean transaction duration
func (s *Statistics) AverageLatency() time.Duration {
	if s.Transactions == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Transactions)
}

// CalculateRates calculates transaction and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.TransactionRate = float64(s.Transactions) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var successPercent float64
	if s.Transactions > 0 {
		successPercent = float64(s.Successful) * 100.0 / float64(s.Transactions)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Transactions:    %8d\n", s.Transactions)
	result += fmt.Sprintf("Successful:      %8d (%.1f%%)\n", s.Successful, successPercent)

	if s.Timeouts > 0 {
		result += fmt.Sprintf("Timeouts:        %8d\n", s.Timeouts)
	}
	if s.TransportErrors > 0 {
		result += fmt.Sprintf("Transport Errs:  %8d\n", s.TransportErrors)
	}
	if s.DeviceErrors > 0 {
		result += fmt.Sprintf("Device Errors:   %8d\n", s.DeviceErrors)
	}
	if s.UnexpectedResponses > 0 {
		result += fmt.Sprintf("Unexpected:      %8d\n", s.UnexpectedResponses)
	}
	if s.ValidationErrors > 0 {
		result += fmt.Sprintf("Rejected Params: %8d\n", s.ValidationErrors)
	}
	if s.CircuitRejections > 0 {
		result += fmt.Sprintf("Circuit Open:    %8d\n", s.CircuitRejections)
	}
	if s.EchoesDiscarded > 0 || s.BlanksDiscarded > 0 {
		result += fmt.Sprintf("Discarded:       %8d echoes, %d blank\n", s.EchoesDiscarded, s.BlanksDiscarded)
	}

	result += fmt.Sprintf("Avg Latency:     %8s\n", s.AverageLatency().Round(time.Millisecond))
	result += fmt.Sprintf("Rate:            %8.2f tx/sec\n", s.TransactionRate)
	result += fmt.Sprintf("Error Rate:      %8.2f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scorpion

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when an operation needs an open connection.
	ErrNotConnected = errors.New("scorpion: not connected")

	// ErrConnect wraps the reason a connection attempt failed.
	ErrConnect = errors.New("scorpion: connect failed")

	// ErrTimeout is returned when no reply line arrives in time, or when the
	// instrument keeps sending echoes and blank lines past the discard limit.
	ErrTimeout = errors.New("scorpion: timed out waiting for response")

	// ErrRequest is returned when the instrument answers with the error
	// sentinel. Query the error code for details.
	ErrRequest = errors.New("scorpion: instrument rejected the request; check power and connection settings")

	// ErrCircuitOpen is returned while the transaction breaker is open.
	ErrCircuitOpen = errors.New("scorpion: circuit open, instrument unresponsive")
)

// ValidationError reports a parameter outside its legal range.
// It is raised before anything is written to the port.
type ValidationError struct {
	Param string
	Value int
	Min   int
	Max   int
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return fmt.Sprintf("scorpion: %s=%d out of range [%d, %d]", v.Param, v.Value, v.Min, v.Max)
}

// UnexpectedResponseError reports a reply that does not match what the
// request expects.
type UnexpectedResponseError struct {
	Request  string
	Response string
}

// Error implements the error interface
func (u *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("scorpion: unexpected result returned when sending %s: %q", u.Request, u.Response)
}

// IsTransportError reports whether err came from the link rather than from
// the instrument's answer.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	var unexpected *UnexpectedResponseError
	var invalid *ValidationError
	switch {
	case errors.Is(err, ErrRequest), errors.As(err, &unexpected), errors.As(err, &invalid):
		return false
	}
	return true
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package scorpion drives a Scorpion microplate stacker over its line-oriented
// serial protocol.
//
// Every exchange is a single CR-terminated command line answered by a single
// reply line. The instrument echoes each command before replying and may emit
// blank lines; the transaction engine discards both. Replies are either the
// "ok"/"err" sentinels or a prefixed value such as "P1=42".
//
// A Driver is not safe for concurrent use. Callers must serialize operations.
package scorpion

import "time"

// Line framing
const (
	LineTerminator = "\r"
	SuccessResult  = "ok"
	ErrorResult    = "err"
)

// Defaults for the serial link
const (
	DefaultBaudRate          = 9600
	DefaultReadTimeout       = 3000 * time.Millisecond
	DefaultSettleDelay       = 500 * time.Millisecond
	DefaultMaxDiscardedLines = 16
)

// Parameter ranges
const (
	MinPosition    = 0
	MaxPosition    = 255
	MinPlateHeight = 1
	MaxPlateHeight = 255
)

// StatusCode is the instrument state reported by the status query.
type StatusCode int

// Status code values
const (
	StatusOkay        StatusCode = 0
	StatusError       StatusCode = 2
	StatusBusy        StatusCode = 4
	StatusRunFinished StatusCode = 16
)

// Valid reports whether s is a known status code.
func (s StatusCode) Valid() bool {
	switch s {
	case StatusOkay, StatusError, StatusBusy, StatusRunFinished:
		return true
	}
	return false
}

func (s StatusCode) String() string {
	switch s {
	case StatusOkay:
		return "OKAY"
	case StatusError:
		return "ERROR"
	case StatusBusy:
		return "BUSY"
	case StatusRunFinished:
		return "RUN_FINISHED"
	default:
		return "UNKNOWN"
	}
}

// ErrorCode is the detail behind an error status, read with the error query.
type ErrorCode int

// Error code values
const (
	ErrorNone              ErrorCode = 0
	ErrorArmUp             ErrorCode = 3
	ErrorArmDown           ErrorCode = 4
	ErrorPlateTransferBack ErrorCode = 6
	ErrorArmHome           ErrorCode = 7
	ErrorLiftHome          ErrorCode = 8
	ErrorConveyerJam       ErrorCode = 9
	ErrorPauseButton       ErrorCode = 10
)

// Valid reports whether e is a known error code.
func (e ErrorCode) Valid() bool {
	switch e {
	case ErrorNone, ErrorArmUp, ErrorArmDown, ErrorPlateTransferBack,
		ErrorArmHome, ErrorLiftHome, ErrorConveyerJam, ErrorPauseButton:
		return true
	}
	return false
}

func (e ErrorCode) String() string {
	switch e {
	case ErrorNone:
		return "NONE"
	case ErrorArmUp:
		return "ARM_UP"
	case ErrorArmDown:
		return "ARM_DOWN"
	case ErrorPlateTransferBack:
		return "PLATE_TRANSFER_BACK"
	case ErrorArmHome:
		return "ARM_HOME"
	case ErrorLiftHome:
		return "LIFT_HOME"
	case ErrorConveyerJam:
		return "CONVEYER_JAM"
	case ErrorPauseButton:
		return "PAUSE_BUTTON"
	default:
		return "UNKNOWN"
	}
}

// Mode selects how plates are handled.
type Mode int

// Mode values
const (
	ModeUnlidded        Mode = 0
	ModeLidded          Mode = 1
	ModeLiddedWithDelid Mode = 2
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeUnlidded, ModeLidded, ModeLiddedWithDelid:
		return true
	}
	return false
}

func (m Mode) String() string {
	switch m {
	case ModeUnlidded:
		return "UNLIDDED"
	case ModeLidded:
		return "LIDDED"
	case ModeLiddedWithDelid:
		return "LIDDED_WITH_DELID"
	default:
		return "UNKNOWN"
	}
}

// Speed is the arm travel speed.
type Speed int

// Speed values
const (
	SpeedFast   Speed = 0
	SpeedMedium Speed = 1
	SpeedSlow   Speed = 2
)

// Valid reports whether s is a known speed.
func (s Speed) Valid() bool {
	switch s {
	case SpeedFast, SpeedMedium, SpeedSlow:
		return true
	}
	return false
}

func (s Speed) String() string {
	switch s {
	case SpeedFast:
		return "FAST"
	case SpeedMedium:
		return "MEDIUM"
	case SpeedSlow:
		return "SLOW"
	default:
		return "UNKNOWN"
	}
}

// ConnState is the driver's connection state.
type ConnState int

// Connection states
const (
	Disconnected ConnState = iota
	Connected
)

func (c ConnState) String() string {
	if c == Connected {
		return "connected"
	}
	return "disconnected"
}

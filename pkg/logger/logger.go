// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package logger is the structured logging facade used by the driver and
// the CLI. The default implementation is backed by log/slog.
package logger

import (
	"fmt"
	"strings"
)

// Level is the minimum severity a logger emits.
type Level int8

const (
	// DebugLevel logs every transaction on the wire.
	DebugLevel Level = iota - 1
	// InfoLevel is the default level.
	InfoLevel
	// WarnLevel logs recoverable problems such as failed connection probes.
	WarnLevel
	// ErrorLevel logs failures that need attention.
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int8(l))
	}
}

// ParseLevel converts a level name (debug, info, warn, error) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// Logger is a leveled, structured logger. Arguments after msg are
// alternating keys and values.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	// With returns a child logger carrying the given key-values.
	With(keysAndValues ...any) Logger
	Level() Level
	SetLevel(level Level)
}

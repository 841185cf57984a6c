// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logger

type nopLogger struct{}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (n nopLogger) With(...any) Logger { return n }
func (nopLogger) Level() Level         { return ErrorLevel }
func (nopLogger) SetLevel(Level)       {}

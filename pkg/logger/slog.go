// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logger

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"

	console "github.com/phsym/console-slog"
)

// SlogLogger implements Logger on top of log/slog.
type SlogLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// NewSlog creates a logger writing to w. When json is false, records are
// rendered for a terminal with console-slog; otherwise as JSON lines.
func NewSlog(w io.Writer, level Level, json bool) *SlogLogger {
	lv := &slog.LevelVar{}
	lv.Set(toSlogLevel(level))

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: lv,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					a.Key = "ts"
				}
				return a
			},
		})
	} else {
		handler = console.NewHandler(w, &console.HandlerOptions{
			Level:      lv,
			TimeFormat: "15:04:05.000",
		})
	}

	return &SlogLogger{logger: slog.New(handler), level: lv}
}

func (l *SlogLogger) Debug(msg string, keysAndValues ...any) {
	l.log(slog.LevelDebug, msg, keysAndValues...)
}

func (l *SlogLogger) Info(msg string, keysAndValues ...any) {
	l.log(slog.LevelInfo, msg, keysAndValues...)
}

func (l *SlogLogger) Warn(msg string, keysAndValues ...any) {
	l.log(slog.LevelWarn, msg, keysAndValues...)
}

func (l *SlogLogger) Error(msg string, keysAndValues ...any) {
	l.log(slog.LevelError, msg, keysAndValues...)
}

func (l *SlogLogger) With(keysAndValues ...any) Logger {
	return &SlogLogger{logger: l.logger.With(keysAndValues...), level: l.level}
}

func (l *SlogLogger) Level() Level {
	switch l.level.Level() {
	case slog.LevelDebug:
		return DebugLevel
	case slog.LevelInfo:
		return InfoLevel
	case slog.LevelWarn:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

func (l *SlogLogger) SetLevel(level Level) {
	l.level.Set(toSlogLevel(level))
}

// log must be called directly by an exported method; the caller depth used
// for the source location depends on it.
func (l *SlogLogger) log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	// skip [runtime.Callers, log, exported method]
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

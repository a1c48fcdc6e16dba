// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

// Package logger provides a thin wrapper around zerolog.Logger used
// throughout the confidentiality engine.
//
// The Logger type embeds zerolog.Logger so the full zerolog API is
// available directly. Components receive a *Logger at construction time and
// obtain operation-scoped loggers via FromContext. Nothing in this package
// (or anywhere else in the engine) ever logs plaintext field values,
// ciphertext bytes, or key material — log fields are limited to record
// identity, column names, domains, and outcomes.
package logger

import (
	"context"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a thin wrapper around zerolog.Logger. Embedding exposes the
// upstream API while leaving room for engine-specific helpers.
type Logger struct {
	zerolog.Logger
}

// NewLogger constructs a production *Logger for the given role label
// (e.g. "crm-server", "transition"). Output is JSON on stdout with a
// timestamp, the role field, and a "func" caller field carrying the
// fully-qualified function name.
func NewLogger(role string) *Logger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return runtime.FuncForPC(pc).Name()
	}
	zerolog.CallerFieldName = "func"

	l := zerolog.New(os.Stdout).With().
		Str("role", role).
		Timestamp().
		Caller().
		Logger()

	return &Logger{l}
}

// Nop returns a *Logger that discards all output. Intended for tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// WithContext stores the logger in ctx so downstream calls can recover it
// with FromContext.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.Logger.WithContext(ctx)
}

// FromContext extracts the zerolog.Logger attached to ctx and returns it as
// a *Logger. Falls back to zerolog's global logger when ctx carries none,
// so the result is never nil.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}

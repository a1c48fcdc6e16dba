// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

// Package audit defines the observability hook for field-level decrypt
// attempts.
//
// The engine reports every Get of a protected field as a (user, record,
// field, domain, outcome) tuple. Events never carry plaintext, ciphertext,
// or key material — only identity and outcome. The CRM's audit collaborator
// supplies a production Sink; the engine ships a zerolog-backed sink and a
// no-op sink for tests.
package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/models"
)

// Outcome classifies one decrypt attempt.
type Outcome string

const (
	// OutcomeGranted: policy allowed the read and decryption succeeded.
	OutcomeGranted Outcome = "granted"

	// OutcomeDenied: policy refused the read; decryption was never
	// attempted and the caller received the domain placeholder.
	OutcomeDenied Outcome = "denied"

	// OutcomeFailed: policy allowed the read but the stored payload could
	// not be authenticated; the caller received the unavailability marker.
	OutcomeFailed Outcome = "failed"
)

// Event is one decrypt-attempt record.
type Event struct {
	// ID is a fresh UUID assigned by the sink caller for correlation.
	ID string

	// Actor is the login of the user performing the read.
	Actor string

	RecordType string
	RecordID   int64
	Field      string
	Domain     models.Domain
	Outcome    Outcome
}

// Sink receives decrypt-attempt events. Implementations must not block the
// read path for long and must tolerate concurrent calls.
type Sink interface {
	DecryptAttempt(ctx context.Context, e Event)
}

// NewEvent assembles an Event with a fresh UUID.
func NewEvent(actor, recordType string, recordID int64, field string, domain models.Domain, outcome Outcome) Event {
	return Event{
		ID:         uuid.NewString(),
		Actor:      actor,
		RecordType: recordType,
		RecordID:   recordID,
		Field:      field,
		Domain:     domain,
		Outcome:    outcome,
	}
}

// ZerologSink writes events as structured log lines. It satisfies the
// engine's observability contract in deployments where the CRM's audit
// pipeline tails the process log.
type ZerologSink struct {
	logger *logger.Logger
}

// NewZerologSink constructs a ZerologSink over log.
func NewZerologSink(log *logger.Logger) *ZerologSink {
	return &ZerologSink{logger: log}
}

// DecryptAttempt implements [Sink].
func (s *ZerologSink) DecryptAttempt(_ context.Context, e Event) {
	s.logger.Info().
		Str("audit_id", e.ID).
		Str("actor", e.Actor).
		Str("record_type", e.RecordType).
		Int64("record_id", e.RecordID).
		Str("field", e.Field).
		Str("domain", e.Domain.String()).
		Str("outcome", string(e.Outcome)).
		Msg("field decrypt attempt")
}

// NopSink discards all events. Intended for tests.
type NopSink struct{}

// DecryptAttempt implements [Sink].
func (NopSink) DecryptAttempt(context.Context, Event) {}

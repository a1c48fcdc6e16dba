// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

// Package field provides the typed, permission-aware accessor that record
// code uses to read and write protected columns.
//
// A Field is constructed once per record type with its ciphertext column,
// confidentiality domain, and redaction placeholder baked in. Reads consult
// the access policy strictly before any decryption; writes carry no
// permission check of their own (obtaining a mutable record handle is the
// surrounding application's write-authorization concern).
//
// Readers can observe three shapes: the decrypted plaintext, the fixed
// domain placeholder (policy denial), or the unavailability marker (stored
// payload failed authentication). The latter two are constants and carry
// nothing derived from the data.
package field

import (
	"context"

	"github.com/atomworks/nucrm/internal/audit"
	"github.com/atomworks/nucrm/internal/codec"
	"github.com/atomworks/nucrm/internal/keystore"
	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/internal/policy"
	"github.com/atomworks/nucrm/models"
)

// Redaction indicators returned by Get. Placeholders are per-domain
// constants; Unavailable is deliberately distinct from both so operators
// can tell "redacted by policy" apart from "data corrupted".
const (
	PlaceholderConfidential = "[Confidential]"
	PlaceholderRestricted   = "[Restricted]"
	Unavailable             = "[Data Unavailable]"
)

// placeholderFor maps a domain to its redaction placeholder.
func placeholderFor(d models.Domain) string {
	if d == models.DomainRestricted {
		return PlaceholderRestricted
	}
	return PlaceholderConfidential
}

// Field is a bound accessor over one protected column of one record type.
// Fields are immutable values; construct them once at package level next
// to the record type they serve.
type Field struct {
	recordType  string
	name        string
	domain      models.Domain
	placeholder string
}

// New binds a field accessor to (recordType, column name, domain). The
// placeholder is derived from the domain.
func New(recordType, name string, domain models.Domain) Field {
	return Field{
		recordType:  recordType,
		name:        name,
		domain:      domain,
		placeholder: placeholderFor(domain),
	}
}

// Name returns the logical field (column) name the accessor is bound to.
func (f Field) Name() string { return f.name }

// Domain returns the confidentiality domain the accessor encrypts under.
func (f Field) Domain() models.Domain { return f.domain }

// Placeholder returns the fixed redaction string unauthorized readers see.
func (f Field) Placeholder() string { return f.placeholder }

// Set encrypts v under the field's domain key and returns the blob for the
// ciphertext column. Absent values produce the codec sentinel.
func (f Field) Set(v models.FieldValue, ks *keystore.KeyStore) ([]byte, error) {
	aead, err := ks.Cipher(f.domain)
	if err != nil {
		return nil, err
	}
	return codec.Encrypt(v, aead)
}

// Get resolves the stored payload for user. The policy check runs strictly
// first: a denied reader gets the placeholder and the cipher is never
// touched. A nil payload (ciphertext column NULL) resolves to the empty
// string. Corrupted payloads resolve to [Unavailable]; the failure is
// logged with record identity only and reported to the audit sink.
func (f Field) Get(ctx context.Context, user models.User, recordID int64, payload []byte, ks *keystore.KeyStore, sink audit.Sink) string {
	if !policy.CanView(user.UserPermissions, f.domain) {
		sink.DecryptAttempt(ctx, audit.NewEvent(user.Login, f.recordType, recordID, f.name, f.domain, audit.OutcomeDenied))
		return f.placeholder
	}

	if payload == nil {
		return ""
	}

	v, err := f.decrypt(payload, ks)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "field.Get").
			Str("record_type", f.recordType).
			Int64("record_id", recordID).
			Str("field", f.name).
			Str("domain", f.domain.String()).
			Msg("stored payload failed authentication")
		sink.DecryptAttempt(ctx, audit.NewEvent(user.Login, f.recordType, recordID, f.name, f.domain, audit.OutcomeFailed))
		return Unavailable
	}

	sink.DecryptAttempt(ctx, audit.NewEvent(user.Login, f.recordType, recordID, f.name, f.domain, audit.OutcomeGranted))
	return v.String()
}

// GetValue is Get for callers that need the typed value rather than a
// display string. Policy denial and corruption are reported through the
// returned ok flag and indicator string exactly as in Get.
func (f Field) GetValue(ctx context.Context, user models.User, recordID int64, payload []byte, ks *keystore.KeyStore, sink audit.Sink) (models.FieldValue, string, bool) {
	if !policy.CanView(user.UserPermissions, f.domain) {
		sink.DecryptAttempt(ctx, audit.NewEvent(user.Login, f.recordType, recordID, f.name, f.domain, audit.OutcomeDenied))
		return models.FieldValue{}, f.placeholder, false
	}

	if payload == nil {
		return models.Absent(), "", true
	}

	v, err := f.decrypt(payload, ks)
	if err != nil {
		sink.DecryptAttempt(ctx, audit.NewEvent(user.Login, f.recordType, recordID, f.name, f.domain, audit.OutcomeFailed))
		return models.FieldValue{}, Unavailable, false
	}

	sink.DecryptAttempt(ctx, audit.NewEvent(user.Login, f.recordType, recordID, f.name, f.domain, audit.OutcomeGranted))
	return v, "", true
}

func (f Field) decrypt(payload []byte, ks *keystore.KeyStore) (models.FieldValue, error) {
	aead, err := ks.Cipher(f.domain)
	if err != nil {
		return models.FieldValue{}, err
	}
	return codec.Decrypt(payload, aead)
}

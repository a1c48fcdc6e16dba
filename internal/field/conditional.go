// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package field

import (
	"context"
	"errors"

	"github.com/atomworks/nucrm/internal/audit"
	"github.com/atomworks/nucrm/internal/codec"
	"github.com/atomworks/nucrm/internal/keystore"
	"github.com/atomworks/nucrm/internal/policy"
	"github.com/atomworks/nucrm/models"
)

// ErrFlagLocked is returned when a field's confidentiality flag cannot be
// cleared because the stored ciphertext will not rewrite to plaintext.
// Clearing always goes through [ConditionalField.RewritePlain] so no stale
// ciphertext is left behind and no plaintext gap opens up; unreadable
// ciphertext keeps the flag up.
var ErrFlagLocked = errors.New("confidentiality flag locked while ciphertext present")

// ErrRewriteDenied is returned by RewritePlain when the caller lacks the
// domain access needed to decrypt the value being rewritten.
var ErrRewriteDenied = errors.New("rewrite to plaintext requires domain access")

// ConditionalField is a field that encrypts only while a companion boolean
// on the same record is true. While the flag is false the value is stored
// and served as plaintext and the cipher is never invoked.
//
// Stored shape invariant: exactly one of (plaintext column, ciphertext
// column) is populated at any time. Set maintains it; RewritePlain is the
// only sanctioned way to go from encrypted back to plain.
type ConditionalField struct {
	Field
}

// NewConditional binds a conditional accessor to (recordType, column name,
// domain).
func NewConditional(recordType, name string, domain models.Domain) ConditionalField {
	return ConditionalField{Field: New(recordType, name, domain)}
}

// Set produces the column pair for storing v under the current flag state.
// confidential=true yields (nil plaintext, ciphertext blob); false yields
// (plaintext, nil blob) without touching the cipher. Absent values clear
// both columns.
func (f ConditionalField) Set(v models.FieldValue, confidential bool, ks *keystore.KeyStore) (plain *string, blob []byte, err error) {
	if v.IsAbsent() {
		return nil, nil, nil
	}

	if !confidential {
		s := v.String()
		return &s, nil, nil
	}

	blob, err = f.Field.Set(v, ks)
	if err != nil {
		return nil, nil, err
	}
	return nil, blob, nil
}

// Get resolves the column pair for user. While the flag is false the
// plaintext passes through untouched — no cipher call, no audit event
// (reading an unprotected column is not a decrypt attempt). While true,
// resolution is identical to [Field.Get].
func (f ConditionalField) Get(ctx context.Context, user models.User, recordID int64, plain *string, blob []byte, confidential bool, ks *keystore.KeyStore, sink audit.Sink) string {
	if !confidential {
		if plain == nil {
			return ""
		}
		return *plain
	}

	return f.Field.Get(ctx, user, recordID, blob, ks, sink)
}

// RewritePlain converts an encrypted value back to its plaintext column
// form so the companion flag can be cleared. The caller must hold the
// field's domain access (or admin): rewriting requires reading the value,
// and the usual no-escalation rule applies. Returns the plaintext to store;
// the caller persists it, nulls the ciphertext column, and clears the flag
// in one record write.
func (f ConditionalField) RewritePlain(ctx context.Context, user models.User, blob []byte, ks *keystore.KeyStore) (*string, error) {
	if !policy.CanView(user.UserPermissions, f.Domain()) {
		return nil, ErrRewriteDenied
	}

	if blob == nil {
		return nil, nil
	}

	aead, err := ks.Cipher(f.Domain())
	if err != nil {
		return nil, err
	}

	v, err := codec.Decrypt(blob, aead)
	if err != nil {
		return nil, err
	}
	if v.IsAbsent() {
		return nil, nil
	}

	s := v.String()
	return &s, nil
}

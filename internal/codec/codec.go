// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package codec

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/atomworks/nucrm/models"
)

const (
	// sentinelAbsent is the entire payload for a NULL value.
	sentinelAbsent = 0x00

	// versionV1 tags the current payload layout: version ‖ nonce ‖ sealed.
	versionV1 = 0x01
)

// Kind prefixes of the canonical plaintext. One byte in front of the UTF-8
// text keeps decryption typed without resorting to a serialization library
// for what is a two-variant union.
const (
	kindText    = 't'
	kindDecimal = 'd'
)

// Encrypt canonicalizes v and seals it under aead with a fresh random
// nonce. Two calls with identical input produce different blobs. Absent
// values return the one-byte sentinel without invoking the cipher.
func Encrypt(v models.FieldValue, aead cipher.AEAD) ([]byte, error) {
	if v.IsAbsent() {
		return []byte{sentinelAbsent}, nil
	}
	if aead == nil {
		return nil, ErrNoCipher
	}

	plaintext, err := canonicalize(v)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	blob := make([]byte, 0, 1+len(nonce)+len(plaintext)+aead.Overhead())
	blob = append(blob, versionV1)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, plaintext, nil)

	return blob, nil
}

// Decrypt authenticates and decodes a blob produced by [Encrypt]. The
// sentinel decodes to Absent without touching the cipher. Any structural
// defect or tag mismatch returns an error wrapping [ErrDecrypt].
func Decrypt(payload []byte, aead cipher.AEAD) (models.FieldValue, error) {
	if len(payload) == 0 {
		return models.FieldValue{}, fmt.Errorf("%w: empty payload", ErrDecrypt)
	}
	if len(payload) == 1 && payload[0] == sentinelAbsent {
		return models.Absent(), nil
	}
	if payload[0] != versionV1 {
		return models.FieldValue{}, fmt.Errorf("%w: unknown version tag 0x%02x", ErrDecrypt, payload[0])
	}
	if aead == nil {
		return models.FieldValue{}, ErrNoCipher
	}

	nonceSize := aead.NonceSize()
	if len(payload) < 1+nonceSize+aead.Overhead() {
		return models.FieldValue{}, fmt.Errorf("%w: payload too short", ErrDecrypt)
	}

	nonce, ciphertext := payload[1:1+nonceSize], payload[1+nonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		// Do not wrap the cipher error detail: it carries nothing useful
		// and the payload must never leak through error text.
		return models.FieldValue{}, fmt.Errorf("%w: authentication failed", ErrDecrypt)
	}

	return decanonicalize(plaintext)
}

// canonicalize renders a present value as kind-prefixed UTF-8 text.
// Decimal values are already held in canonical string form by
// [models.NewDecimal], so currency-scale magnitudes survive exactly.
func canonicalize(v models.FieldValue) ([]byte, error) {
	var prefix byte
	switch v.Kind {
	case models.KindText:
		prefix = kindText
	case models.KindDecimal:
		prefix = kindDecimal
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrEncode, v.Kind)
	}

	out := make([]byte, 0, 1+len(v.Raw))
	out = append(out, prefix)
	return append(out, v.Raw...), nil
}

func decanonicalize(plaintext []byte) (models.FieldValue, error) {
	if len(plaintext) == 0 {
		return models.FieldValue{}, fmt.Errorf("%w: empty plaintext", ErrDecrypt)
	}

	raw := string(plaintext[1:])
	switch plaintext[0] {
	case kindText:
		return models.Text(raw), nil
	case kindDecimal:
		return models.FieldValue{Kind: models.KindDecimal, Raw: raw}, nil
	default:
		return models.FieldValue{}, fmt.Errorf("%w: unknown kind prefix 0x%02x", ErrDecrypt, plaintext[0])
	}
}

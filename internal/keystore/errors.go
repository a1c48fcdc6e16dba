// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package keystore

import "errors"

// Key errors are fatal startup conditions. A process holding a partially
// valid key store must not serve requests, so [Load] returns one of these
// and the caller exits. Match with [errors.Is].
var (
	// ErrKeyMissing indicates that no key material was configured for a
	// required domain.
	ErrKeyMissing = errors.New("master key missing")

	// ErrKeyMalformed indicates that the configured key material is not
	// valid base64 or does not decode to exactly 32 bytes.
	ErrKeyMalformed = errors.New("master key malformed")

	// ErrKeySelfTest indicates that the derived cipher failed its startup
	// encrypt/decrypt round trip or its tamper check.
	ErrKeySelfTest = errors.New("master key failed self-test")

	// ErrUnknownDomain is returned by [KeyStore.Cipher] for a domain the
	// store holds no key for. With a store built by [Load] this cannot
	// happen for the known domains; it guards against future enum drift.
	ErrUnknownDomain = errors.New("no key loaded for domain")
)

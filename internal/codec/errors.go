// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package codec

import "errors"

// Sentinel errors returned by the codec. Callers should match with
// [errors.Is].
var (
	// ErrDecrypt is returned for any payload that cannot be authenticated
	// and decoded: truncated blob, unknown version byte, or GCM tag
	// mismatch. The wrapped detail never includes payload bytes.
	ErrDecrypt = errors.New("cannot decrypt payload")

	// ErrEncode is returned when a plaintext value cannot be canonicalized
	// for encryption (unknown value kind).
	ErrEncode = errors.New("cannot encode value")

	// ErrNoCipher is returned when a nil cipher handle is supplied. This
	// indicates a wiring bug: the key store hands out handles only after a
	// successful startup self-test.
	ErrNoCipher = errors.New("no cipher handle")
)

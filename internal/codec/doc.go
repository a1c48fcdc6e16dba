// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

// Package codec implements the authenticated encryption format for
// protected field values.
//
// At rest a protected value is a single opaque blob:
//
//	[1-byte version=0x01][12-byte nonce][ciphertext ‖ GCM tag]
//
// Absent (NULL) values are the one-byte sentinel 0x00 and never touch the
// cipher. Before encryption a value is canonicalized to text with a
// one-byte kind prefix so the exact typed value (text vs. decimal) is
// restored on decryption; decimal amounts keep full precision.
//
// Decryption fails closed: an unknown version byte, a truncated blob, or
// any authentication-tag mismatch yields [ErrDecrypt] — never plausible but
// wrong plaintext.
package codec

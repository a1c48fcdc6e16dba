// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package migrator

import "errors"

var (
	// ErrVerifyMismatch is returned when decoding a just-written
	// ciphertext column disagrees with the source plaintext. The run
	// aborts immediately; batches committed before the mismatch stand.
	ErrVerifyMismatch = errors.New("migration verify mismatch")

	// ErrStorageUnavailable is returned when a storage operation fails in
	// a way the driver reports as transient. The run aborts so it can be
	// repeated once the database recovers; the idempotent scan predicate
	// makes the rerun pick up exactly where this one stopped.
	ErrStorageUnavailable = errors.New("storage unavailable, rerun migration")
)

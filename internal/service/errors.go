// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package service

import "errors"

var (
	// ErrFlagPermission is returned when a user without the relevant
	// domain access tries to set or clear a confidentiality flag.
	ErrFlagPermission = errors.New("flag change requires domain access")

	// ErrInvalidDataProvided is returned for structurally invalid input
	// (e.g. an empty company name, a self-referencing relationship).
	ErrInvalidDataProvided = errors.New("invalid data provided")
)

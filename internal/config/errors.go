// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package config

import "errors"

// Validation errors returned by [EngineConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, an empty DSN or an unknown driver name).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")

	// ErrInvalidMigratorConfigs indicates invalid transition-migrator
	// settings (for example, a non-positive batch size).
	ErrInvalidMigratorConfigs = errors.New("invalid migrator configuration")
)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package config

import "fmt"

// validate checks that the final merged [EngineConfig] satisfies all
// invariants the engine relies on at startup.
//
// Key material is deliberately not validated here beyond presence of the
// struct: decoding and self-testing the keys is the key store's job, and a
// bad key must fail startup through [keystore.Load]'s richer error
// taxonomy, not through a generic config error.
func (cfg *EngineConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return fmt.Errorf("%w: empty DSN", ErrInvalidStorageConfigs)
	}

	switch cfg.Storage.DB.Driver {
	case "pgx", "sqlite3":
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidStorageConfigs, cfg.Storage.DB.Driver)
	}

	if cfg.Migrator.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidMigratorConfigs)
	}

	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package store

import (
	"database/sql"

	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/migrations"
)

// DB wraps the shared *sql.DB handle together with the logger and the
// driver-specific error classifier. All repositories embed it.
type DB struct {
	*sql.DB
	errorClassifier ErrorClassifier
	dialect         string
	logger          *logger.Logger
}

// Migrate applies the embedded goose schema migrations. Schema changes are
// strictly additive (parallel ciphertext columns next to legacy plaintext
// ones), so running this against a live legacy database is safe.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.dialect)
}

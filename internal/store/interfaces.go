// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package store

import (
	"context"

	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/models"
)

// CompanyFinancialsUpdate carries the ciphertext blobs of an encrypted
// financials write. A nil slice means "leave the column untouched" — an
// explicit NULL is never written here because absent values are stored as
// the codec sentinel, not as SQL NULL, once a field has been touched.
type CompanyFinancialsUpdate struct {
	AnnualRevenueEnc     []byte
	ContractValueEnc     []byte
	RelationshipNotesEnc []byte
}

// CompanyRepository owns the companies table, including the dual
// plaintext/ciphertext column pairs of the encrypted field set.
type CompanyRepository interface {
	CreateCompany(ctx context.Context, company models.Company) (models.Company, error)
	GetCompany(ctx context.Context, id int64) (models.Company, error)

	// UpdateFinancials writes ciphertext columns selected by non-nil
	// fields of update.
	UpdateFinancials(ctx context.Context, id int64, update CompanyFinancialsUpdate) error

	// UpdateRate writes the conditional rate column pair and its flag in
	// one statement, preserving the exactly-one-populated invariant.
	UpdateRate(ctx context.Context, id int64, plain *string, blob []byte, confidential bool) error

	// DeleteCompany removes the company and purges its field flags in the
	// same transaction, so no dangling flag rows survive to probe deleted
	// records.
	DeleteCompany(ctx context.Context, id int64) error
}

// FieldFlagRepository owns the field_flags table: per-record, per-column
// confidentiality marks on otherwise-plaintext columns.
type FieldFlagRepository interface {
	// IsFlagged reports whether a flag row exists for the triple. Absence
	// means "not confidential".
	IsFlagged(ctx context.Context, recordType string, recordID int64, fieldName string) (bool, error)

	// SetFlag inserts the flag row if missing. Idempotent: re-flagging an
	// already-flagged field is a no-op, never a duplicate row.
	SetFlag(ctx context.Context, flag models.FieldFlag) error

	// ClearFlag removes the flag row if present.
	ClearFlag(ctx context.Context, recordType string, recordID int64, fieldName string) error

	// ListFlags returns all flags of one record.
	ListFlags(ctx context.Context, recordType string, recordID int64) ([]models.FieldFlag, error)

	// ClearOrphans purges every flag of a deleted record. Record-owning
	// repositories call it inside their delete transactions; it also backs
	// the cleanup path for record types owned by the wider CRM.
	ClearOrphans(ctx context.Context, recordType string, recordID int64) error
}

// RelationshipRepository owns the relationships table. Confidential edges
// are filtered at query time: the includeConfidential decision is made by
// the service layer from the access policy, keeping this package free of
// permission logic.
type RelationshipRepository interface {
	CreateRelationship(ctx context.Context, rel models.Relationship) (models.Relationship, error)
	ListByCompany(ctx context.Context, companyID int64, includeConfidential bool) ([]models.Relationship, error)
}

// UnmigratedRow is one row selected by the transition scan predicate:
// legacy plaintext present, ciphertext column still NULL.
type UnmigratedRow struct {
	ID        int64
	Plaintext string
}

// DualRow is one row holding both the legacy plaintext and the migrated
// ciphertext, as read back by the verify pass.
type DualRow struct {
	ID        int64
	Plaintext string
	Payload   []byte
}

// TransitionRepository is the storage surface of the transition migrator.
// Columns are logical names resolved against the protected-column
// whitelist; anything else fails with [ErrUnknownColumn].
type TransitionRepository interface {
	// ScanUnmigrated returns up to limit unmigrated rows for the column in
	// ascending id order, starting after afterID. The predicate (plaintext
	// IS NOT NULL AND cipher IS NULL) is what makes migration runs
	// idempotent; the cursor is what lets a run move past rows it had to
	// skip.
	ScanUnmigrated(ctx context.Context, column string, afterID int64, limit int) ([]UnmigratedRow, error)

	// CountUnmigrated returns the number of rows the scan predicate
	// currently matches.
	CountUnmigrated(ctx context.Context, column string) (int, error)

	// WriteCiphertext populates the ciphertext column of one row, leaving
	// the plaintext column untouched. Writes only where the ciphertext is
	// still NULL; a row migrated by a concurrent pass is left alone.
	WriteCiphertext(ctx context.Context, id int64, column string, blob []byte) error

	// ReadCiphertext reads back the ciphertext column of one row, as
	// needed by the migrator's decode-after-encode verification.
	ReadCiphertext(ctx context.Context, id int64, column string) ([]byte, error)

	// ListDual pages through rows where both columns are populated,
	// ascending by id, starting after afterID.
	ListDual(ctx context.Context, column string, afterID int64, limit int) ([]DualRow, error)

	// Retryable reports whether err looks transient for the underlying
	// driver (lost connection, deadlock rollback). The migrator aborts a
	// run on transient trouble and skips the row on anything else.
	Retryable(err error) bool
}

// Repositories aggregates every repository over one shared connection.
type Repositories struct {
	Companies     CompanyRepository
	FieldFlags    FieldFlagRepository
	Relationships RelationshipRepository
	Transition    TransitionRepository
}

// NewRepositories wires all repositories over db.
func NewRepositories(db *DB, log *logger.Logger) *Repositories {
	flags := NewFieldFlagRepository(db, log)
	return &Repositories{
		Companies:     NewCompanyRepository(db, log),
		FieldFlags:    flags,
		Relationships: NewRelationshipRepository(db, log),
		Transition:    NewTransitionRepository(db, log),
	}
}

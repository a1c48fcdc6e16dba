// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

// Package migrator implements the batch job that moves legacy plaintext
// columns into their parallel ciphertext columns.
//
// A run proceeds column by column, batch by batch: Scan selects rows whose
// plaintext is present and whose ciphertext is still NULL (the predicate
// that makes reruns idempotent), Encrypt writes the ciphertext column
// without touching the plaintext, Verify decodes what was just written and
// compares it against the source. The job is additive and reversible right
// up to the moment the legacy columns are dropped by a later schema
// release, and it is safe to run while the application serves traffic: a
// row is either fully migrated or untouched, never half-visible.
//
// Cancellation is honored between batches only; a batch that has started
// writing always finishes or aborts as a unit.
package migrator

import (
	"context"
	"crypto/cipher"
	"fmt"

	"github.com/google/uuid"

	"github.com/atomworks/nucrm/internal/codec"
	"github.com/atomworks/nucrm/internal/keystore"
	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/internal/store"
	"github.com/atomworks/nucrm/models"
)

// Options tunes one migration run.
type Options struct {
	// DryRun scans and verifies the encrypt/decode round trip in memory
	// without committing any write.
	DryRun bool

	// BatchSize is the number of rows per batch. Must be positive.
	BatchSize int

	// Columns restricts the run to a subset of the protected field set.
	// Empty means every protected column.
	Columns []string
}

// Migrator drives the plaintext-to-ciphertext transition. Stateless apart
// from its injected collaborators; a single instance may run repeatedly.
type Migrator struct {
	store  store.TransitionRepository
	keys   *keystore.KeyStore
	logger *logger.Logger
}

// New constructs a Migrator.
func New(st store.TransitionRepository, keys *keystore.KeyStore, logger *logger.Logger) *Migrator {
	return &Migrator{
		store:  st,
		keys:   keys,
		logger: logger,
	}
}

// Run executes Scan → Encrypt → Verify batches until no unmigrated rows
// remain or the run aborts. The returned report is valid (and its counters
// final) even when err is non-nil.
//
// Failure semantics: a key failure aborts before any write; a transient
// storage failure aborts the run ([ErrStorageUnavailable]); a verify
// mismatch aborts the run ([ErrVerifyMismatch]); any row-local failure is
// logged, counted as skipped, and left for a later run.
func (m *Migrator) Run(ctx context.Context, opts Options) (models.MigrationReport, error) {
	report := models.MigrationReport{
		RunID:  uuid.NewString(),
		DryRun: opts.DryRun,
	}

	if opts.BatchSize <= 0 {
		return report, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}

	columns := opts.Columns
	if len(columns) == 0 {
		columns = store.ProtectedColumnNames()
	}

	log := m.logger.With().Str("run_id", report.RunID).Bool("dry_run", opts.DryRun).Logger()
	ctx = log.WithContext(ctx)

	for _, column := range columns {
		info, err := store.ProtectedColumnInfo(column)
		if err != nil {
			return report, err
		}

		// Resolve the domain cipher up front: a key problem must abort
		// the whole run before a single row is touched.
		aead, err := m.keys.Cipher(info.Domain)
		if err != nil {
			return report, err
		}

		// The cursor advances past skipped rows, so a run always
		// terminates; skipped rows come back on the next run.
		afterID := int64(0)
		for {
			// Cancellation point: between batches only.
			if err := ctx.Err(); err != nil {
				return report, err
			}

			rows, err := m.store.ScanUnmigrated(ctx, column, afterID, opts.BatchSize)
			if err != nil {
				return report, m.classifyStorageErr(err)
			}
			if len(rows) == 0 {
				break
			}
			afterID = rows[len(rows)-1].ID
			report.Scanned += len(rows)

			if err := m.processBatch(ctx, column, info, aead, rows, opts.DryRun, &report); err != nil {
				return report, err
			}

			if opts.DryRun {
				// Without writes the scan predicate never shrinks; one
				// batch per column is the whole sample.
				break
			}
		}
	}

	log.Info().
		Int("scanned", report.Scanned).
		Int("encrypted", report.Encrypted).
		Int("skipped", report.Skipped).
		Int("verify_mismatches", report.VerifyMismatches).
		Msg("migration run finished")

	return report, nil
}

// processBatch encrypts, writes, and verifies one batch of rows.
func (m *Migrator) processBatch(ctx context.Context, column string, info store.ProtectedColumn, aead cipher.AEAD, rows []store.UnmigratedRow, dryRun bool, report *models.MigrationReport) error {
	log := logger.FromContext(ctx)

	for _, row := range rows {
		value, err := parsePlaintext(info.Kind, row.Plaintext)
		if err != nil {
			log.Warn().Err(err).
				Str("func", "Migrator.processBatch").
				Str("column", column).
				Int64("row_id", row.ID).
				Msg("plaintext does not parse, row skipped")
			report.Skipped++
			continue
		}

		blob, err := codec.Encrypt(value, aead)
		if err != nil {
			log.Warn().Err(err).
				Str("func", "Migrator.processBatch").
				Str("column", column).
				Int64("row_id", row.ID).
				Msg("encrypt failed, row skipped")
			report.Skipped++
			continue
		}

		if dryRun {
			// Verify the round trip in memory; nothing is written.
			if err := verifyDecode(blob, aead, value); err != nil {
				report.VerifyMismatches++
				return fmt.Errorf("column %s row %d: %w", column, row.ID, err)
			}
			report.Encrypted++
			continue
		}

		if err := m.store.WriteCiphertext(ctx, row.ID, column, blob); err != nil {
			if m.store.Retryable(err) {
				return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
			}
			log.Warn().Err(err).
				Str("func", "Migrator.processBatch").
				Str("column", column).
				Int64("row_id", row.ID).
				Msg("ciphertext write failed, row skipped")
			report.Skipped++
			continue
		}

		written, err := m.store.ReadCiphertext(ctx, row.ID, column)
		if err != nil {
			return m.classifyStorageErr(err)
		}
		if err := verifyDecode(written, aead, value); err != nil {
			report.VerifyMismatches++
			return fmt.Errorf("column %s row %d: %w", column, row.ID, err)
		}

		report.Encrypted++
	}

	return nil
}

// Verify re-decodes every dual-populated row of the selected columns and
// compares against the legacy plaintext. Unlike a run's inline verify it
// does not abort on the first mismatch: operators want the full damage
// picture. The report's counters carry the result.
func (m *Migrator) Verify(ctx context.Context, batchSize int, columns []string) (models.MigrationReport, error) {
	report := models.MigrationReport{RunID: uuid.NewString()}

	if batchSize <= 0 {
		return report, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if len(columns) == 0 {
		columns = store.ProtectedColumnNames()
	}

	log := m.logger.With().Str("run_id", report.RunID).Logger()
	ctx = log.WithContext(ctx)

	for _, column := range columns {
		info, err := store.ProtectedColumnInfo(column)
		if err != nil {
			return report, err
		}
		aead, err := m.keys.Cipher(info.Domain)
		if err != nil {
			return report, err
		}

		afterID := int64(0)
		for {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			rows, err := m.store.ListDual(ctx, column, afterID, batchSize)
			if err != nil {
				return report, m.classifyStorageErr(err)
			}
			if len(rows) == 0 {
				break
			}

			for _, row := range rows {
				afterID = row.ID
				report.Scanned++

				value, err := parsePlaintext(info.Kind, row.Plaintext)
				if err != nil {
					report.Skipped++
					continue
				}
				if err := verifyDecode(row.Payload, aead, value); err != nil {
					log.Warn().
						Str("func", "Migrator.Verify").
						Str("column", column).
						Int64("row_id", row.ID).
						Msg("ciphertext column disagrees with plaintext")
					report.VerifyMismatches++
					continue
				}
				report.Encrypted++
			}
		}
	}

	return report, nil
}

// Scan counts unmigrated rows per column without touching anything.
func (m *Migrator) Scan(ctx context.Context, columns []string) (map[string]int, error) {
	if len(columns) == 0 {
		columns = store.ProtectedColumnNames()
	}

	counts := make(map[string]int, len(columns))
	for _, column := range columns {
		n, err := m.store.CountUnmigrated(ctx, column)
		if err != nil {
			return nil, m.classifyStorageErr(err)
		}
		counts[column] = n
	}

	return counts, nil
}

func (m *Migrator) classifyStorageErr(err error) error {
	if m.store.Retryable(err) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return err
}

// parsePlaintext interprets a legacy plaintext cell as the column's
// declared value kind.
func parsePlaintext(kind models.ValueKind, s string) (models.FieldValue, error) {
	if kind == models.KindDecimal {
		return models.NewDecimal(s)
	}
	return models.Text(s), nil
}

// verifyDecode decodes blob and compares the result against want.
func verifyDecode(blob []byte, aead cipher.AEAD, want models.FieldValue) error {
	got, err := codec.Decrypt(blob, aead)
	if err != nil {
		return fmt.Errorf("%w: decode failed: %v", ErrVerifyMismatch, err)
	}
	if got != want {
		// The values themselves stay out of the error text.
		return fmt.Errorf("%w: decoded value differs from source", ErrVerifyMismatch)
	}
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package store

import (
	"context"
	"fmt"

	"github.com/atomworks/nucrm/internal/logger"
)

// transitionRepository is the SQL-backed implementation of
// [TransitionRepository]. Column names are resolved through the
// protected-column whitelist before touching SQL text; the placeholders
// carry only values.
type transitionRepository struct {
	*DB
	logger *logger.Logger
}

// NewTransitionRepository constructs a [TransitionRepository] backed by db.
func NewTransitionRepository(db *DB, logger *logger.Logger) TransitionRepository {
	return &transitionRepository{
		DB:     db,
		logger: logger,
	}
}

// scanPredicate renders the idempotence predicate for one column pair:
// plaintext present, ciphertext still NULL, plus the column's extra
// condition when it has one (the conditional rate field).
func scanPredicate(spec protectedColumn) string {
	predicate := fmt.Sprintf("%s IS NOT NULL AND %s IS NULL", spec.plain, spec.cipher)
	if spec.extraScanCond != "" {
		predicate += " AND " + spec.extraScanCond
	}
	return predicate
}

// ScanUnmigrated implements [TransitionRepository].
func (r *transitionRepository) ScanUnmigrated(ctx context.Context, column string, afterID int64, limit int) ([]UnmigratedRow, error) {
	log := logger.FromContext(ctx)

	spec, err := columnSpec(column)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT id, %s FROM companies WHERE %s AND id > $1 ORDER BY id LIMIT $2;`,
		spec.plain, scanPredicate(spec),
	)

	rows, err := r.DB.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		log.Err(err).
			Str("func", "transitionRepository.ScanUnmigrated").
			Str("column", column).
			Msg("failed to scan unmigrated rows")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	result := make([]UnmigratedRow, 0, limit)
	for rows.Next() {
		var row UnmigratedRow
		if err := rows.Scan(&row.ID, &row.Plaintext); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return result, nil
}

// CountUnmigrated implements [TransitionRepository].
func (r *transitionRepository) CountUnmigrated(ctx context.Context, column string) (int, error) {
	log := logger.FromContext(ctx)

	spec, err := columnSpec(column)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM companies WHERE %s;`, scanPredicate(spec))

	var count int
	if err := r.DB.QueryRowContext(ctx, query).Scan(&count); err != nil {
		log.Err(err).
			Str("func", "transitionRepository.CountUnmigrated").
			Str("column", column).
			Msg("failed to count unmigrated rows")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

// WriteCiphertext implements [TransitionRepository]. The guard on the
// ciphertext column still being NULL makes the write a no-op for rows a
// concurrent pass migrated since the scan — zero affected rows is not an
// error here, just a skipped row.
func (r *transitionRepository) WriteCiphertext(ctx context.Context, id int64, column string, blob []byte) error {
	log := logger.FromContext(ctx)

	spec, err := columnSpec(column)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		`UPDATE companies SET %s = $1 WHERE id = $2 AND %s IS NULL;`,
		spec.cipher, spec.cipher,
	)

	if _, err := r.DB.ExecContext(ctx, query, blob, id); err != nil {
		log.Err(err).
			Str("func", "transitionRepository.WriteCiphertext").
			Str("column", column).
			Int64("row_id", id).
			Msg("failed to write ciphertext column")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// ReadCiphertext implements [TransitionRepository].
func (r *transitionRepository) ReadCiphertext(ctx context.Context, id int64, column string) ([]byte, error) {
	log := logger.FromContext(ctx)

	spec, err := columnSpec(column)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM companies WHERE id = $1;`, spec.cipher)

	var blob []byte
	if err := r.DB.QueryRowContext(ctx, query, id).Scan(&blob); err != nil {
		log.Err(err).
			Str("func", "transitionRepository.ReadCiphertext").
			Str("column", column).
			Int64("row_id", id).
			Msg("failed to read back ciphertext column")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return blob, nil
}

// Retryable implements [TransitionRepository].
func (r *transitionRepository) Retryable(err error) bool {
	return r.errorClassifier.Classify(err) == Retryable
}

// ListDual implements [TransitionRepository].
func (r *transitionRepository) ListDual(ctx context.Context, column string, afterID int64, limit int) ([]DualRow, error) {
	log := logger.FromContext(ctx)

	spec, err := columnSpec(column)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT id, %s, %s FROM companies WHERE %s IS NOT NULL AND %s IS NOT NULL AND id > $1 ORDER BY id LIMIT $2;`,
		spec.plain, spec.cipher, spec.plain, spec.cipher,
	)

	rows, err := r.DB.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		log.Err(err).
			Str("func", "transitionRepository.ListDual").
			Str("column", column).
			Msg("failed to list dual-populated rows")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	result := make([]DualRow, 0, limit)
	for rows.Next() {
		var row DualRow
		if err := rows.Scan(&row.ID, &row.Plaintext, &row.Payload); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return result, nil
}

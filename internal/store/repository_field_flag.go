// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/models"
)

// fieldFlagRepository is the SQL-backed implementation of
// [FieldFlagRepository]. Queries are built with squirrel; the
// (record_type, record_id, field_name) uniqueness lives in the schema and
// SetFlag leans on it for idempotence.
type fieldFlagRepository struct {
	*DB
	logger *logger.Logger
}

// NewFieldFlagRepository constructs a [FieldFlagRepository] backed by db.
func NewFieldFlagRepository(db *DB, logger *logger.Logger) FieldFlagRepository {
	return &fieldFlagRepository{
		DB:     db,
		logger: logger,
	}
}

// IsFlagged implements [FieldFlagRepository]. A missing row reads as
// false: absence of a flag means "not confidential".
func (r *fieldFlagRepository) IsFlagged(ctx context.Context, recordType string, recordID int64, fieldName string) (bool, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select("1").
		From("field_flags").
		Where(sq.Eq{
			"record_type": recordType,
			"record_id":   recordID,
			"field_name":  fieldName,
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var one int
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		log.Err(err).
			Str("func", "fieldFlagRepository.IsFlagged").
			Str("record_type", recordType).
			Int64("record_id", recordID).
			Str("field_name", fieldName).
			Msg("failed to query field flag")
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return true, nil
}

// SetFlag implements [FieldFlagRepository]. ON CONFLICT DO NOTHING keeps
// re-flagging idempotent under the schema's uniqueness constraint; a
// concurrent duplicate surfacing as a unique violation is treated the same
// way.
func (r *fieldFlagRepository) SetFlag(ctx context.Context, flag models.FieldFlag) error {
	log := logger.FromContext(ctx)

	query, args, err := sq.Insert("field_flags").
		Columns("record_type", "record_id", "field_name", "created_by", "created_at").
		Values(flag.RecordType, flag.RecordID, flag.FieldName, flag.CreatedBy, time.Now().UTC()).
		Suffix("ON CONFLICT (record_type, record_id, field_name) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		if r.errorClassifier.IsUniqueViolation(err) {
			return nil
		}
		log.Err(err).
			Str("func", "fieldFlagRepository.SetFlag").
			Str("record_type", flag.RecordType).
			Int64("record_id", flag.RecordID).
			Str("field_name", flag.FieldName).
			Msg("failed to insert field flag")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// ClearFlag implements [FieldFlagRepository]. Clearing an absent flag is
// not an error.
func (r *fieldFlagRepository) ClearFlag(ctx context.Context, recordType string, recordID int64, fieldName string) error {
	log := logger.FromContext(ctx)

	query, args, err := sq.Delete("field_flags").
		Where(sq.Eq{
			"record_type": recordType,
			"record_id":   recordID,
			"field_name":  fieldName,
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "fieldFlagRepository.ClearFlag").
			Str("record_type", recordType).
			Int64("record_id", recordID).
			Str("field_name", fieldName).
			Msg("failed to delete field flag")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// ListFlags implements [FieldFlagRepository].
func (r *fieldFlagRepository) ListFlags(ctx context.Context, recordType string, recordID int64) ([]models.FieldFlag, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select("record_type", "record_id", "field_name", "created_by", "created_at").
		From("field_flags").
		Where(sq.Eq{
			"record_type": recordType,
			"record_id":   recordID,
		}).
		OrderBy("field_name").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "fieldFlagRepository.ListFlags").
			Str("record_type", recordType).
			Int64("record_id", recordID).
			Msg("failed to query field flags")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	flags := make([]models.FieldFlag, 0, 4)
	for rows.Next() {
		var f models.FieldFlag
		if err := rows.Scan(&f.RecordType, &f.RecordID, &f.FieldName, &f.CreatedBy, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		flags = append(flags, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return flags, nil
}

// ClearOrphans implements [FieldFlagRepository].
func (r *fieldFlagRepository) ClearOrphans(ctx context.Context, recordType string, recordID int64) error {
	log := logger.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, deleteFlagsForRecord, recordType, recordID); err != nil {
		log.Err(err).
			Str("func", "fieldFlagRepository.ClearOrphans").
			Str("record_type", recordType).
			Int64("record_id", recordID).
			Msg("failed to purge field flags")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

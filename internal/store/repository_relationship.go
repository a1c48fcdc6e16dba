// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/models"
)

// relationshipRepository is the SQL-backed implementation of
// [RelationshipRepository].
type relationshipRepository struct {
	*DB
	logger *logger.Logger
}

// NewRelationshipRepository constructs a [RelationshipRepository] backed
// by db.
func NewRelationshipRepository(db *DB, logger *logger.Logger) RelationshipRepository {
	return &relationshipRepository{
		DB:     db,
		logger: logger,
	}
}

// CreateRelationship inserts a new edge and returns it with the generated
// id populated.
func (r *relationshipRepository) CreateRelationship(ctx context.Context, rel models.Relationship) (models.Relationship, error) {
	log := logger.FromContext(ctx)

	rel.CreatedAt = time.Now().UTC()

	row := r.DB.QueryRowContext(ctx, createRelationship,
		rel.FromCompanyID,
		rel.ToCompanyID,
		rel.Kind,
		rel.Confidential,
		rel.CreatedAt,
	)
	if err := row.Scan(&rel.ID); err != nil {
		log.Err(err).
			Str("func", "relationshipRepository.CreateRelationship").
			Int64("from_company", rel.FromCompanyID).
			Int64("to_company", rel.ToCompanyID).
			Msg("failed to insert relationship")
		return models.Relationship{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return rel, nil
}

// ListByCompany returns every edge touching companyID. Confidential edges
// are excluded entirely unless includeConfidential is set — a hidden edge
// never appears in any form, not even as a locked stub.
func (r *relationshipRepository) ListByCompany(ctx context.Context, companyID int64, includeConfidential bool) ([]models.Relationship, error) {
	log := logger.FromContext(ctx)

	builder := sq.Select("id", "from_company", "to_company", "kind", "confidential", "created_at").
		From("relationships").
		Where(sq.Or{
			sq.Eq{"from_company": companyID},
			sq.Eq{"to_company": companyID},
		}).
		OrderBy("id").
		PlaceholderFormat(sq.Dollar)

	if !includeConfidential {
		builder = builder.Where(sq.Eq{"confidential": false})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "relationshipRepository.ListByCompany").
			Int64("company_id", companyID).
			Msg("failed to query relationships")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	rels := make([]models.Relationship, 0, 16)
	for rows.Next() {
		var rel models.Relationship
		if err := rows.Scan(&rel.ID, &rel.FromCompanyID, &rel.ToCompanyID, &rel.Kind, &rel.Confidential, &rel.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return rels, nil
}

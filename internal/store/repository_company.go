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

// companyRepository is the SQL-backed implementation of
// [CompanyRepository]. New records are written ciphertext-first: the
// legacy plaintext columns exist only for rows predating the transition
// and are never populated for protected fields on the create path.
type companyRepository struct {
	*DB
	logger *logger.Logger
}

// NewCompanyRepository constructs a [CompanyRepository] backed by db.
func NewCompanyRepository(db *DB, logger *logger.Logger) CompanyRepository {
	return &companyRepository{
		DB:     db,
		logger: logger,
	}
}

// CreateCompany inserts a new company and returns it with the generated id
// and timestamps populated.
func (r *companyRepository) CreateCompany(ctx context.Context, company models.Company) (models.Company, error) {
	log := logger.FromContext(ctx)

	now := time.Now().UTC()
	company.CreatedAt = now
	company.UpdatedAt = now

	row := r.DB.QueryRowContext(ctx, createCompany,
		company.Name,
		company.AnnualRevenueEnc,
		company.ContractValueEnc,
		company.RelationshipNotesEnc,
		company.NegotiatedRate,
		company.NegotiatedRateEnc,
		company.RateConfidential,
		company.CreatedAt,
		company.UpdatedAt,
	)
	if err := row.Scan(&company.ID); err != nil {
		log.Err(err).
			Str("func", "companyRepository.CreateCompany").
			Str("name", company.Name).
			Msg("failed to insert company")
		return models.Company{}, fmt.Errorf("%w: %w", ErrCompanyNotSaved, err)
	}

	return company, nil
}

// GetCompany retrieves one company by id, including both halves of every
// dual column pair.
func (r *companyRepository) GetCompany(ctx context.Context, id int64) (models.Company, error) {
	log := logger.FromContext(ctx)

	var company models.Company
	var revenue, contract, notes, rate sql.NullString

	err := r.DB.QueryRowContext(ctx, getCompany, id).Scan(
		&company.ID,
		&company.Name,
		&revenue,
		&company.AnnualRevenueEnc,
		&contract,
		&company.ContractValueEnc,
		&notes,
		&company.RelationshipNotesEnc,
		&rate,
		&company.NegotiatedRateEnc,
		&company.RateConfidential,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Company{}, ErrCompanyNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "companyRepository.GetCompany").
			Int64("company_id", id).
			Msg("failed to query company")
		return models.Company{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	company.AnnualRevenue = nullableString(revenue)
	company.ContractValue = nullableString(contract)
	company.RelationshipNotes = nullableString(notes)
	company.NegotiatedRate = nullableString(rate)

	return company, nil
}

// UpdateFinancials writes the ciphertext columns selected by non-nil
// update fields. The SET list is assembled dynamically with squirrel.
func (r *companyRepository) UpdateFinancials(ctx context.Context, id int64, update CompanyFinancialsUpdate) error {
	log := logger.FromContext(ctx)

	builder := sq.Update("companies").
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar)

	touched := false
	if update.AnnualRevenueEnc != nil {
		builder = builder.Set("annual_revenue_enc", update.AnnualRevenueEnc)
		touched = true
	}
	if update.ContractValueEnc != nil {
		builder = builder.Set("contract_value_enc", update.ContractValueEnc)
		touched = true
	}
	if update.RelationshipNotesEnc != nil {
		builder = builder.Set("relationship_notes_enc", update.RelationshipNotesEnc)
		touched = true
	}
	if !touched {
		return nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "companyRepository.UpdateFinancials").
			Int64("company_id", id).
			Msg("failed to build update query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "companyRepository.UpdateFinancials").
			Int64("company_id", id).
			Msg("failed to execute financials update")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return requireRowAffected(res, ErrCompanyNotFound)
}

// UpdateRate writes the conditional rate column pair and its flag
// atomically relative to the row.
func (r *companyRepository) UpdateRate(ctx context.Context, id int64, plain *string, blob []byte, confidential bool) error {
	log := logger.FromContext(ctx)

	res, err := r.DB.ExecContext(ctx, updateCompanyRate,
		plain,
		blob,
		confidential,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Err(err).
			Str("func", "companyRepository.UpdateRate").
			Int64("company_id", id).
			Bool("confidential", confidential).
			Msg("failed to execute rate update")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return requireRowAffected(res, ErrCompanyNotFound)
}

// DeleteCompany removes the company row and purges its field flags in one
// transaction.
func (r *companyRepository) DeleteCompany(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "companyRepository.DeleteCompany").
			Int64("company_id", id).
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, deleteCompany, id)
	if err != nil {
		log.Err(err).
			Str("func", "companyRepository.DeleteCompany").
			Int64("company_id", id).
			Msg("failed to delete company")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if err := requireRowAffected(res, ErrCompanyNotFound); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, deleteFlagsForRecord, models.RecordTypeCompany, id); err != nil {
		log.Err(err).
			Str("func", "companyRepository.DeleteCompany").
			Int64("company_id", id).
			Msg("failed to purge field flags")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func requireRowAffected(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}

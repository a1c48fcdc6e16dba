// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atomworks/nucrm/internal/audit"
	"github.com/atomworks/nucrm/internal/codec"
	"github.com/atomworks/nucrm/internal/field"
	"github.com/atomworks/nucrm/internal/keystore"
	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/internal/policy"
	"github.com/atomworks/nucrm/internal/store"
	"github.com/atomworks/nucrm/models"
)

// companyService implements [CompanyService] over the company and
// relationship repositories. All encryption flows through the bound field
// accessors in company_fields.go; this type never touches the codec
// directly.
type companyService struct {
	companies     store.CompanyRepository
	relationships store.RelationshipRepository
	keys          *keystore.KeyStore
	sink          audit.Sink
	logger        *logger.Logger
}

// NewCompanyService constructs a [CompanyService].
func NewCompanyService(companies store.CompanyRepository, relationships store.RelationshipRepository, keys *keystore.KeyStore, sink audit.Sink, logger *logger.Logger) CompanyService {
	return &companyService{
		companies:     companies,
		relationships: relationships,
		keys:          keys,
		sink:          sink,
		logger:        logger,
	}
}

// CreateCompany encrypts the protected input values and inserts the
// record. New records are ciphertext-only: legacy plaintext columns stay
// NULL forever for rows created after the transition began.
func (s *companyService) CreateCompany(ctx context.Context, input CompanyInput) (models.Company, error) {
	if input.Name == "" {
		return models.Company{}, fmt.Errorf("%w: company name is required", ErrInvalidDataProvided)
	}

	company := models.Company{
		Name:             input.Name,
		RateConfidential: input.RateConfidential,
	}

	var err error
	if company.AnnualRevenueEnc, err = fieldAnnualRevenue.Set(input.AnnualRevenue, s.keys); err != nil {
		return models.Company{}, err
	}
	if company.ContractValueEnc, err = fieldContractValue.Set(input.ContractValue, s.keys); err != nil {
		return models.Company{}, err
	}
	if company.RelationshipNotesEnc, err = fieldRelationshipNotes.Set(input.RelationshipNotes, s.keys); err != nil {
		return models.Company{}, err
	}

	plain, blob, err := fieldNegotiatedRate.Set(input.NegotiatedRate, input.RateConfidential, s.keys)
	if err != nil {
		return models.Company{}, err
	}
	company.NegotiatedRate = plain
	company.NegotiatedRateEnc = blob

	return s.companies.CreateCompany(ctx, company)
}

// GetCompanyView loads the record and resolves every protected field for
// user. Rows still in the legacy plaintext state are gated by the same
// policy as encrypted ones: an unauthorized reader sees the placeholder
// whether or not the backfill has reached the row yet.
func (s *companyService) GetCompanyView(ctx context.Context, user models.User, id int64) (models.CompanyView, error) {
	company, err := s.companies.GetCompany(ctx, id)
	if err != nil {
		return models.CompanyView{}, err
	}

	view := models.CompanyView{
		ID:   company.ID,
		Name: company.Name,
	}

	view.AnnualRevenue = s.resolveDual(ctx, user, fieldAnnualRevenue, company.ID, company.AnnualRevenue, company.AnnualRevenueEnc)
	view.ContractValue = s.resolveDual(ctx, user, fieldContractValue, company.ID, company.ContractValue, company.ContractValueEnc)
	view.RelationshipNotes = s.resolveDual(ctx, user, fieldRelationshipNotes, company.ID, company.RelationshipNotes, company.RelationshipNotesEnc)
	view.NegotiatedRate = fieldNegotiatedRate.Get(ctx, user, company.ID, company.NegotiatedRate, company.NegotiatedRateEnc, company.RateConfidential, s.keys, s.sink)

	return view, nil
}

// resolveDual resolves one dual-column field. A populated ciphertext
// column is authoritative and goes through the full decrypt path; a
// not-yet-migrated plaintext value passes through without any cipher call
// but behind the same policy gate.
func (s *companyService) resolveDual(ctx context.Context, user models.User, f field.Field, recordID int64, plain *string, blob []byte) string {
	if blob != nil {
		return f.Get(ctx, user, recordID, blob, s.keys, s.sink)
	}
	if plain == nil {
		return ""
	}
	if !policy.CanView(user.UserPermissions, f.Domain()) {
		return f.Placeholder()
	}
	return *plain
}

// UpdateFinancials encrypts the selected values and writes their
// ciphertext columns. Writes carry no permission check: write
// authorization is the surrounding application's concern.
func (s *companyService) UpdateFinancials(ctx context.Context, id int64, update FinancialsUpdate) error {
	var stored store.CompanyFinancialsUpdate
	var err error

	if update.AnnualRevenue != nil {
		if stored.AnnualRevenueEnc, err = fieldAnnualRevenue.Set(*update.AnnualRevenue, s.keys); err != nil {
			return err
		}
	}
	if update.ContractValue != nil {
		if stored.ContractValueEnc, err = fieldContractValue.Set(*update.ContractValue, s.keys); err != nil {
			return err
		}
	}
	if update.RelationshipNotes != nil {
		if stored.RelationshipNotesEnc, err = fieldRelationshipNotes.Set(*update.RelationshipNotes, s.keys); err != nil {
			return err
		}
	}

	return s.companies.UpdateFinancials(ctx, id, stored)
}

// UpdateRate stores a new negotiated rate under the record's current
// confidentiality flag, keeping the exactly-one-column-populated shape.
func (s *companyService) UpdateRate(ctx context.Context, id int64, value models.FieldValue) error {
	company, err := s.companies.GetCompany(ctx, id)
	if err != nil {
		return err
	}

	plain, blob, err := fieldNegotiatedRate.Set(value, company.RateConfidential, s.keys)
	if err != nil {
		return err
	}

	return s.companies.UpdateRate(ctx, id, plain, blob, company.RateConfidential)
}

// SetRateConfidential flips the conditional-encryption flag and rewrites
// the stored value into the matching column in the same record write, so
// no stale ciphertext and no plaintext gap ever exists.
func (s *companyService) SetRateConfidential(ctx context.Context, user models.User, id int64, confidential bool) error {
	log := logger.FromContext(ctx)

	company, err := s.companies.GetCompany(ctx, id)
	if err != nil {
		return err
	}

	if company.RateConfidential == confidential {
		return nil
	}

	if confidential {
		// Raising the flag: encrypt whatever plaintext is stored.
		value := models.Absent()
		if company.NegotiatedRate != nil {
			if value, err = models.NewDecimal(*company.NegotiatedRate); err != nil {
				// Legacy free-text rates exist in old records. They still
				// deserve protection, just as text.
				value = models.Text(*company.NegotiatedRate)
			}
		}

		plain, blob, err := fieldNegotiatedRate.Set(value, true, s.keys)
		if err != nil {
			return err
		}

		log.Info().
			Str("func", "companyService.SetRateConfidential").
			Int64("company_id", id).
			Msg("negotiated rate switched to encrypted storage")
		return s.companies.UpdateRate(ctx, id, plain, blob, true)
	}

	// Clearing the flag: the value must be rewritten as plaintext by a
	// caller allowed to read it. Anything else would leave orphaned
	// ciphertext behind or open a window with no readable value at all.
	plain, err := fieldNegotiatedRate.RewritePlain(ctx, user, company.NegotiatedRateEnc, s.keys)
	if errors.Is(err, codec.ErrDecrypt) {
		// Unreadable ciphertext cannot be rewritten, so the flag stays up
		// until the stored blob is repaired or replaced.
		return fmt.Errorf("%w: %w", field.ErrFlagLocked, err)
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("func", "companyService.SetRateConfidential").
		Int64("company_id", id).
		Str("actor", user.Login).
		Msg("negotiated rate rewritten to plaintext storage")
	return s.companies.UpdateRate(ctx, id, plain, nil, false)
}

// DeleteCompany implements [CompanyService]. Flag purge happens inside the
// repository's delete transaction.
func (s *companyService) DeleteCompany(ctx context.Context, id int64) error {
	return s.companies.DeleteCompany(ctx, id)
}

// CreateRelationship implements [CompanyService].
func (s *companyService) CreateRelationship(ctx context.Context, rel models.Relationship) (models.Relationship, error) {
	if rel.FromCompanyID == rel.ToCompanyID {
		return models.Relationship{}, fmt.Errorf("%w: relationship endpoints must differ", ErrInvalidDataProvided)
	}
	return s.relationships.CreateRelationship(ctx, rel)
}

// ListRelationships implements [CompanyService]. The visibility decision
// is made here, once, from the access policy; the repository just filters.
func (s *companyService) ListRelationships(ctx context.Context, user models.User, companyID int64) ([]models.Relationship, error) {
	includeConfidential := policy.CanView(user.UserPermissions, models.DomainRestricted)
	return s.relationships.ListByCompany(ctx, companyID, includeConfidential)
}

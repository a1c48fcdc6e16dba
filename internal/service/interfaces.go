// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package service

import (
	"context"

	"github.com/atomworks/nucrm/models"
)

// CompanyInput carries the caller-supplied values for creating a company.
// Protected values arrive as typed plaintext and are encrypted before the
// record ever reaches storage.
type CompanyInput struct {
	Name              string
	AnnualRevenue     models.FieldValue
	ContractValue     models.FieldValue
	RelationshipNotes models.FieldValue
	NegotiatedRate    models.FieldValue
	RateConfidential  bool
}

// FinancialsUpdate selects the protected fields to rewrite. Nil pointers
// leave the field untouched; pointing at an Absent value stores the
// encrypted NULL sentinel.
type FinancialsUpdate struct {
	AnnualRevenue     *models.FieldValue
	ContractValue     *models.FieldValue
	RelationshipNotes *models.FieldValue
}

// CompanyService is the record-facing surface of the confidentiality
// engine: every read resolves protected fields through the access policy,
// every write encrypts before storage.
type CompanyService interface {
	CreateCompany(ctx context.Context, input CompanyInput) (models.Company, error)

	// GetCompanyView resolves all protected fields of one company for
	// user. Unauthorized fields come back as domain placeholders,
	// corrupted ones as the unavailability marker.
	GetCompanyView(ctx context.Context, user models.User, id int64) (models.CompanyView, error)

	UpdateFinancials(ctx context.Context, id int64, update FinancialsUpdate) error

	// UpdateRate stores a new negotiated rate under the record's current
	// confidentiality flag.
	UpdateRate(ctx context.Context, id int64, value models.FieldValue) error

	// SetRateConfidential flips the conditional-encryption flag. Raising
	// it encrypts the stored plaintext; clearing it requires the caller to
	// hold confidential access, because the value must be decrypted and
	// rewritten as plaintext in the same record write.
	SetRateConfidential(ctx context.Context, user models.User, id int64, confidential bool) error

	// DeleteCompany removes the record and purges its field flags.
	DeleteCompany(ctx context.Context, id int64) error

	CreateRelationship(ctx context.Context, rel models.Relationship) (models.Relationship, error)

	// ListRelationships returns the edges of a company visible to user.
	// Confidential edges are absent from the result for viewers without
	// internal-team access.
	ListRelationships(ctx context.Context, user models.User, companyID int64) ([]models.Relationship, error)
}

// FlagService manages per-record confidentiality flags on plaintext
// columns. Setting or clearing a flag requires the domain access the flag
// is tied to.
type FlagService interface {
	SetFlag(ctx context.Context, user models.User, domain models.Domain, flag models.FieldFlag) error
	ClearFlag(ctx context.Context, user models.User, domain models.Domain, recordType string, recordID int64, fieldName string) error
	IsFlagged(ctx context.Context, recordType string, recordID int64, fieldName string) (bool, error)
	ListFlags(ctx context.Context, recordType string, recordID int64) ([]models.FieldFlag, error)
	ClearOrphans(ctx context.Context, recordType string, recordID int64) error
}

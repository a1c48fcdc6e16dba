// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package service

import (
	"github.com/atomworks/nucrm/internal/field"
	"github.com/atomworks/nucrm/models"
)

// The statically declared protected field set of the company record.
// Accessors are bound once at package level: domain and placeholder are
// fixed properties of the schema, not of any request.
var (
	fieldAnnualRevenue     = field.New(models.RecordTypeCompany, "annual_revenue", models.DomainConfidential)
	fieldContractValue     = field.New(models.RecordTypeCompany, "contract_value", models.DomainConfidential)
	fieldRelationshipNotes = field.New(models.RecordTypeCompany, "relationship_notes", models.DomainRestricted)

	// The negotiated rate encrypts only while the record's
	// rate_confidential flag is raised.
	fieldNegotiatedRate = field.NewConditional(models.RecordTypeCompany, "negotiated_rate", models.DomainConfidential)
)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

package store

import (
	"fmt"
	"sort"

	"github.com/atomworks/nucrm/models"
)

const (
	createCompany = `INSERT INTO companies (name, annual_revenue_enc, contract_value_enc, relationship_notes_enc, negotiated_rate, negotiated_rate_enc, rate_confidential, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;`

	getCompany = `SELECT
			id,
			name,
			annual_revenue,
			annual_revenue_enc,
			contract_value,
			contract_value_enc,
			relationship_notes,
			relationship_notes_enc,
			negotiated_rate,
			negotiated_rate_enc,
			rate_confidential,
			created_at,
			updated_at
		FROM companies
		WHERE id = $1;`

	deleteCompany = `DELETE FROM companies WHERE id = $1;`

	// The conditional rate field is always written as a column pair plus its
	// flag in one statement, so a record is never observable half-switched.
	updateCompanyRate = `UPDATE companies
		SET negotiated_rate = $1,
			negotiated_rate_enc = $2,
			rate_confidential = $3,
			updated_at = $4
		WHERE id = $5;`

	createRelationship = `INSERT INTO relationships (from_company, to_company, kind, confidential, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;`

	deleteFlagsForRecord = `DELETE FROM field_flags
		WHERE record_type = $1 AND record_id = $2;`
)

// protectedColumn describes one entry of the statically declared encrypted
// field set: the legacy plaintext column, its parallel ciphertext column,
// the domain it encrypts under, and the value kind its plaintext must parse
// as during the transition.
type protectedColumn struct {
	plain  string
	cipher string
	domain models.Domain
	kind   models.ValueKind

	// extraScanCond narrows the migrator's scan predicate. Used by the
	// conditional rate column, where plaintext rows with the flag off are
	// legitimately plaintext and must not be migrated.
	extraScanCond string
}

// protectedColumns is the complete encrypted field set of the schema.
// Encryption never applies to any column outside this map; FieldFlag
// handles ad hoc confidentiality of plaintext columns instead.
var protectedColumns = map[string]protectedColumn{
	"annual_revenue": {
		plain:  "annual_revenue",
		cipher: "annual_revenue_enc",
		domain: models.DomainConfidential,
		kind:   models.KindDecimal,
	},
	"contract_value": {
		plain:  "contract_value",
		cipher: "contract_value_enc",
		domain: models.DomainConfidential,
		kind:   models.KindDecimal,
	},
	"relationship_notes": {
		plain:  "relationship_notes",
		cipher: "relationship_notes_enc",
		domain: models.DomainRestricted,
		kind:   models.KindText,
	},
	"negotiated_rate": {
		plain:         "negotiated_rate",
		cipher:        "negotiated_rate_enc",
		domain:        models.DomainConfidential,
		kind:          models.KindDecimal,
		extraScanCond: "rate_confidential = TRUE",
	},
}

// ProtectedColumnNames returns the logical names of the encrypted field
// set in deterministic order (CLI listing, migrator default run set).
func ProtectedColumnNames() []string {
	names := make([]string, 0, len(protectedColumns))
	for name := range protectedColumns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// columnSpec resolves a logical column name against the whitelist. Column
// identifiers are interpolated into SQL text, so nothing outside the map
// may ever pass through.
func columnSpec(name string) (protectedColumn, error) {
	spec, ok := protectedColumns[name]
	if !ok {
		return protectedColumn{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return spec, nil
}

// ProtectedColumn is the exported view of one encrypted field-set entry,
// as needed by the transition migrator to pick the right domain key and
// plaintext parser per column.
type ProtectedColumn struct {
	Name   string
	Domain models.Domain
	Kind   models.ValueKind
}

// ProtectedColumnInfo resolves a logical column name to its domain and
// value kind. Returns [ErrUnknownColumn] for anything outside the
// statically declared set.
func ProtectedColumnInfo(name string) (ProtectedColumn, error) {
	spec, err := columnSpec(name)
	if err != nil {
		return ProtectedColumn{}, err
	}
	return ProtectedColumn{Name: name, Domain: spec.domain, Kind: spec.kind}, nil
}

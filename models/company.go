package models

import "time"

// Company is a tracked nuclear-industry organisation. Protected financial
// fields live in dual columns during the encryption transition: the legacy
// plaintext column and the parallel ciphertext column. A populated
// ciphertext column is authoritative; the plaintext column survives only
// until the transition completes.
type Company struct {
	ID   int64
	Name string

	// Legacy plaintext columns (nil once a field has never been populated;
	// kept untouched by the migrator).
	AnnualRevenue     *string
	ContractValue     *string
	RelationshipNotes *string
	NegotiatedRate    *string

	// Parallel ciphertext columns (nil = not migrated / not set).
	AnnualRevenueEnc     []byte
	ContractValueEnc     []byte
	RelationshipNotesEnc []byte
	NegotiatedRateEnc    []byte

	// RateConfidential gates NegotiatedRate: while false the rate is stored
	// and served as plaintext, when true it is encrypted under the
	// confidential domain.
	RateConfidential bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompanyView is a company as presented to one particular user: every
// protected field already resolved through the access policy. A field holds
// either the decrypted value, the domain placeholder, or the unavailability
// marker — callers cannot tell ciphertext from plaintext and never see
// payload bytes.
type CompanyView struct {
	ID   int64
	Name string

	AnnualRevenue     string
	ContractValue     string
	RelationshipNotes string
	NegotiatedRate    string
}

package models

import "time"

// Record types usable as the owning side of a field flag.
const (
	RecordTypeCompany      = "company"
	RecordTypeRelationship = "relationship"
)

// FieldFlag marks one field of one record as confidential without
// encrypting it. Flags are a display/query filter layered on top of
// otherwise-plaintext columns; encryption is reserved for the statically
// declared field set and never depends on flags.
//
// Absence of a flag row means "not confidential". At most one row exists
// per (RecordType, RecordID, FieldName) triple.
type FieldFlag struct {
	RecordType string
	RecordID   int64
	FieldName  string

	// CreatedBy records the login of the user who set the flag. Flag
	// writes require the relevant domain access, so this is always a user
	// who could see the field at the time.
	CreatedBy string

	CreatedAt time.Time
}

package models

import "time"

// Relationship is a directed edge between two companies (supplier,
// contractor, joint venture, ...). Confidential edges are filtered out of
// result sets entirely for viewers without internal-team access — a hidden
// edge is indistinguishable from a non-existent one.
type Relationship struct {
	ID            int64
	FromCompanyID int64
	ToCompanyID   int64
	Kind          string

	// Confidential hides the edge from non-internal viewers. Independent of
	// both field encryption and field flags.
	Confidential bool

	CreatedAt time.Time
}

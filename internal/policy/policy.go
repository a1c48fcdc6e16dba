// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atomworks

// Package policy maps user permission flags to confidentiality-domain
// visibility.
//
// CanView is the single gate in front of every decryption: callers must
// check it strictly before invoking the codec, never decrypt-then-discard.
// An unauthorized request therefore never touches key material. Denial is a
// policy decision, not an error — readers render the domain placeholder and
// carry on.
package policy

import "github.com/atomworks/nucrm/models"

// CanView reports whether u may see plaintext of domain d.
//
// IsAdmin short-circuits both domain checks (an override attribute of the
// user, not a third domain). Otherwise the two domains are fully
// independent: Confidential follows HasConfidentialAccess, Restricted
// follows IsInternalTeam. Unknown domains are denied.
func CanView(u models.UserPermissions, d models.Domain) bool {
	if u.IsAdmin {
		return true
	}

	switch d {
	case models.DomainConfidential:
		return u.HasConfidentialAccess
	case models.DomainRestricted:
		return u.IsInternalTeam
	default:
		return false
	}
}

// CanFlag reports whether u may set or clear a confidentiality flag tied
// to domain d. Flagging uses the same gate as viewing: a user cannot
// escalate by marking data they are not allowed to see.
func CanFlag(u models.UserPermissions, d models.Domain) bool {
	return CanView(u, d)
}

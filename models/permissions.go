package models

// UserPermissions is the read-only permission snapshot attached to an
// authenticated actor for the duration of one operation. The surrounding
// application's auth layer produces it; the engine only consumes it.
//
// The two domain flags are independent: a user may hold neither, either,
// or both. IsAdmin overrides both domain checks but is not a domain itself.
type UserPermissions struct {
	// HasConfidentialAccess grants visibility of DomainConfidential fields
	// (financial and business data).
	HasConfidentialAccess bool

	// IsInternalTeam grants visibility of DomainRestricted fields
	// (internal relationship-assessment notes).
	IsInternalTeam bool

	// IsAdmin bypasses both domain checks.
	IsAdmin bool
}

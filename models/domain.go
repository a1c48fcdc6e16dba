package models

import "fmt"

// Domain identifies one of the two independent confidentiality categories.
// Each domain has its own master key and its own permission flag; holding
// access to one domain says nothing about the other.
//
// There is deliberately no "admin" domain: administrator override is a
// property of the user (see [UserPermissions.IsAdmin]), never a value that
// can be stored alongside data.
type Domain string

const (
	// DomainConfidential protects financial and business data
	// (contract values, revenue figures, negotiated rates).
	DomainConfidential Domain = "confidential"

	// DomainRestricted protects internal relationship-assessment notes
	// visible only to the internal team.
	DomainRestricted Domain = "restricted"
)

// Domains lists every confidentiality domain the engine knows about.
// The key store requires a valid master key for each entry at startup.
var Domains = []Domain{DomainConfidential, DomainRestricted}

// ParseDomain converts a user-supplied string (CLI argument, config value)
// into a Domain. Returns an error for anything that is not exactly one of
// the known domain names.
func ParseDomain(s string) (Domain, error) {
	switch Domain(s) {
	case DomainConfidential:
		return DomainConfidential, nil
	case DomainRestricted:
		return DomainRestricted, nil
	default:
		return "", fmt.Errorf("unknown confidentiality domain %q", s)
	}
}

// String returns the canonical lower-case domain name.
func (d Domain) String() string {
	return string(d)
}

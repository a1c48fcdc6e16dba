package policy

import (
	"testing"

	"github.com/atomworks/nucrm/models"
)

func TestCanView(t *testing.T) {
	cases := []struct {
		name   string
		perms  models.UserPermissions
		domain models.Domain
		want   bool
	}{
		{"no access, confidential", models.UserPermissions{}, models.DomainConfidential, false},
		{"no access, restricted", models.UserPermissions{}, models.DomainRestricted, false},

		{"confidential flag opens confidential", models.UserPermissions{HasConfidentialAccess: true}, models.DomainConfidential, true},
		{"confidential flag does not open restricted", models.UserPermissions{HasConfidentialAccess: true}, models.DomainRestricted, false},

		{"internal team opens restricted", models.UserPermissions{IsInternalTeam: true}, models.DomainRestricted, true},
		{"internal team does not open confidential", models.UserPermissions{IsInternalTeam: true}, models.DomainConfidential, false},

		{"both flags open both", models.UserPermissions{HasConfidentialAccess: true, IsInternalTeam: true}, models.DomainConfidential, true},

		{"admin overrides confidential", models.UserPermissions{IsAdmin: true}, models.DomainConfidential, true},
		{"admin overrides restricted", models.UserPermissions{IsAdmin: true}, models.DomainRestricted, true},

		{"unknown domain denied even for admin-less full access", models.UserPermissions{HasConfidentialAccess: true, IsInternalTeam: true}, models.Domain("other"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanView(tc.perms, tc.domain); got != tc.want {
				t.Errorf("CanView(%+v, %s) = %t, want %t", tc.perms, tc.domain, got, tc.want)
			}
		})
	}
}

func TestCanFlag_MatchesCanView(t *testing.T) {
	perms := []models.UserPermissions{
		{},
		{HasConfidentialAccess: true},
		{IsInternalTeam: true},
		{IsAdmin: true},
	}

	for _, p := range perms {
		for _, d := range models.Domains {
			if CanFlag(p, d) != CanView(p, d) {
				t.Errorf("CanFlag(%+v, %s) diverges from CanView", p, d)
			}
		}
	}
}

// Package account contains domain types for identity-provider accounts and the
// locally owned disabled-user side index. It is free of adapter concerns.
package account

import (
	"strings"
	"time"
)

// Role is the value of the "role" custom claim on an account.
type Role string

// Known roles. An account without a role claim is treated as RoleUser.
const (
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
	RoleUser      Role = "user"
	RoleGuest     Role = "guest"
	RoleMember    Role = "member"
	RoleStaff     Role = "staff"
)

// RoleClaim is the custom claim key holding the account role.
const RoleClaim = "role"

// KnownRoles returns the assignable roles in display order.
func KnownRoles() []Role {
	return []Role{RoleAdmin, RoleSuperuser, RoleUser, RoleGuest, RoleMember, RoleStaff}
}

// ParseRole normalises a role string and reports whether it is assignable.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range KnownRoles() {
		if r == k {
			return r, true
		}
	}
	return "", false
}

// RoleFromClaims reads the role claim, defaulting to RoleUser.
func RoleFromClaims(claims map[string]any) Role {
	if v, ok := claims[RoleClaim].(string); ok && v != "" {
		return Role(strings.ToLower(v))
	}
	return RoleUser
}

// Account is a user record owned by the identity provider.
// This service never persists it; it only reads it and requests mutations.
type Account struct {
	UID           string         `json:"uid"`
	Email         string         `json:"email"`
	DisplayName   string         `json:"displayName,omitempty"`
	Disabled      bool           `json:"disabled"`
	EmailVerified bool           `json:"emailVerified"`
	CustomClaims  map[string]any `json:"customClaims,omitempty"`
	ProviderIDs   []string       `json:"providerIds,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	LastSignInAt  time.Time      `json:"lastSignInAt"`
}

// Role returns the account's role claim.
func (a Account) Role() Role { return RoleFromClaims(a.CustomClaims) }

// NeverSignedIn reports whether the provider has no sign-in timestamp for the account.
func (a Account) NeverSignedIn() bool { return a.LastSignInAt.IsZero() }

// Page is one page of a provider user listing.
type Page struct {
	Accounts []Account
	// NextPageToken is empty on the last page.
	NextPageToken string
}

// DisabledKeyPrefix prefixes every DisabledUserRecord key in the key-value store.
const DisabledKeyPrefix = "disabled_user:"

// DisabledKey returns the store key for uid.
func DisabledKey(uid string) string { return DisabledKeyPrefix + uid }

// DisabledUserRecord marks an account as administratively disabled through this service.
// It exists iff the most recent admin action on UID through this service was a disable.
type DisabledUserRecord struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisabledTime time.Time `json:"disabledTime"`
}

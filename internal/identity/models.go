// Package identity resolves who is calling: profile records map an
// authenticated master to a role, and the revocation list invalidates tokens
// on logout. Authentication itself is the token issuer's job (jwttoken).
package identity

import (
	"time"

	id "inkregister/pkg/domain"
)

// Role enumerates the access levels known to the system.
const (
	RoleAdmin  = "admin"
	RoleMaster = "master"
	RoleClient = "client"
)

// Profile is the stored record for an authenticated user.
type Profile struct {
	MasterID  id.MasterID
	FullName  string
	Role      string
	CreatedAt time.Time
}

// ValidRole reports whether the role is one of the known levels.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMaster || role == RoleClient
}

package model

import "github.com/google/uuid"

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID    uuid.UUID
	Role  Role
	Name  string
	Email string
}

// Has reports whether the principal satisfies a role gate. Vendor gates
// also admit admins; every other gate is an exact match.
func (p Principal) Has(required Role) bool {
	if required == RoleVendor {
		return p.Role == RoleVendor || p.Role == RoleAdmin
	}
	return p.Role == required
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Owns reports whether the principal is the given owner or an admin.
func (p Principal) Owns(owner uuid.UUID) bool {
	return p.IsAdmin() || (owner != uuid.Nil && p.ID == owner)
}

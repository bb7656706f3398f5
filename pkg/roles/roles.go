// Package roles defines the ordered membership role ladder shared by space
// and channel memberships.
//
// The ladder is owner > admin > moderator > member. Ordering is by index:
// a lower index means a higher privilege, so "A outranks or equals B" is
// index(A) <= index(B).
package roles

import "fmt"

// Role is a membership privilege level.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// Ladder lists all roles from the highest privilege to the lowest.
var Ladder = []Role{
	RoleOwner,
	RoleAdmin,
	RoleModerator,
	RoleMember,
}

// DefaultRole is the role a membership carries when no role row exists.
const DefaultRole = RoleMember

// Index returns the position of r in the ladder, or -1 for unknown roles.
func (r Role) Index() int {
	for i, candidate := range Ladder {
		if candidate == r {
			return i
		}
	}
	return -1
}

// Valid reports whether r is one of the four ladder roles.
func (r Role) Valid() bool {
	return r.Index() >= 0
}

// Parse converts a raw string into a Role, rejecting values outside the ladder.
func Parse(raw string) (Role, error) {
	r := Role(raw)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}

// Comparison is the result of comparing two roles.
type Comparison int

const (
	// Higher means the first role outranks the second.
	Higher Comparison = iota
	// Equal means both roles carry the same privilege.
	Equal
	// Lower means the first role is outranked by the second.
	Lower
)

// Compare orders a against b on the ladder.
func Compare(a, b Role) Comparison {
	ai, bi := a.Index(), b.Index()
	switch {
	case ai < bi:
		return Higher
	case ai == bi:
		return Equal
	default:
		return Lower
	}
}

// OutranksOrEquals reports whether r carries at least the privilege of other.
func (r Role) OutranksOrEquals(other Role) bool {
	return r.Index() <= other.Index()
}

// IsAdministrative reports whether r is owner or admin.
func (r Role) IsAdministrative() bool {
	return r == RoleOwner || r == RoleAdmin
}

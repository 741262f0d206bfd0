package valueobjects

import (
	"sort"
	"strings"
)

// Role is one member of the closed role vocabulary.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleModerator  Role = "moderator"
)

// KnownRoles lists the recognized roles in a stable order.
var KnownRoles = []Role{RoleAdmin, RoleSupervisor, RoleModerator}

// ParseRole maps a token to a known role. Matching ignores case and surrounding space.
func ParseRole(token string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(token)))
	switch r {
	case RoleAdmin, RoleSupervisor, RoleModerator:
		return r, true
	}
	return "", false
}

// RoleSet is an immutable set of known roles. Unknown tokens never enter a set.
type RoleSet struct {
	roles map[Role]struct{}
}

// NewRoleSet builds a set from already-typed roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := RoleSet{roles: make(map[Role]struct{}, len(roles))}
	for _, r := range roles {
		if parsed, ok := ParseRole(string(r)); ok {
			set.roles[parsed] = struct{}{}
		}
	}
	return set
}

// ParseRoleSet builds a set from raw tokens, dropping anything outside the vocabulary.
// Each token may itself be a comma-delimited list.
func ParseRoleSet(tokens ...string) RoleSet {
	var roles []Role
	for _, t := range tokens {
		for _, part := range strings.Split(t, ",") {
			if r, ok := ParseRole(part); ok {
				roles = append(roles, r)
			}
		}
	}
	return NewRoleSet(roles...)
}

// Has reports membership.
func (s RoleSet) Has(r Role) bool {
	_, ok := s.roles[r]
	return ok
}

// HasAny reports whether the set contains at least one of roles.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Union returns a new set holding the roles of both.
func (s RoleSet) Union(other RoleSet) RoleSet {
	return NewRoleSet(append(s.Slice(), other.Slice()...)...)
}

// Slice returns the roles in sorted order.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s.roles))
	for r := range s.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the roles as sorted strings.
func (s RoleSet) Strings() []string {
	roles := s.Slice()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// Len returns the number of roles.
func (s RoleSet) Len() int {
	return len(s.roles)
}

// Actor is the identity performing an operation together with its roles.
// It is always passed explicitly; the engine never assumes a default actor.
type Actor struct {
	ID    string
	Roles RoleSet
}

// NewActor creates an actor.
func NewActor(id string, roles RoleSet) Actor {
	return Actor{ID: strings.TrimSpace(id), Roles: roles}
}

// IsZero reports an actor with no identity.
func (a Actor) IsZero() bool {
	return a.ID == ""
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Roles.Has(RoleAdmin)
}

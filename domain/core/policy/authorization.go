// Package policy holds the authorization gates for idea mutations. Gates are
// pure functions of the actor and the record owner; they never touch storage.
package policy

import (
	"ideabox/domain/core/valueobjects"
	pkgerrors "ideabox/pkg/errors"
)

// Gate classifies an operation.
type Gate int

const (
	// GateOpen applies to reads.
	GateOpen Gate = iota
	// GateOwnerOrAdmin applies to idea update and removal.
	GateOwnerOrAdmin
	// GateAuthorOnly applies to comment removal. Admins get no override.
	GateAuthorOnly
	// GatePrivileged applies to audit reads and status administration.
	GatePrivileged
)

// Check evaluates gate for actor against the record owner.
func Check(gate Gate, actor valueobjects.Actor, owner string) error {
	switch gate {
	case GateOpen:
		return nil
	case GateOwnerOrAdmin:
		return CanModifyIdea(actor, owner)
	case GateAuthorOnly:
		return CanRemoveComment(actor, owner)
	case GatePrivileged:
		return CanAudit(actor, owner)
	}
	return pkgerrors.NewUnauthorizedError("")
}

// CanModifyIdea permits the creator or any admin.
func CanModifyIdea(actor valueobjects.Actor, createdBy string) error {
	if actor.IsZero() {
		return pkgerrors.NewUnauthorizedError("an actor is required")
	}
	if actor.ID == createdBy || actor.IsAdmin() {
		return nil
	}
	return pkgerrors.NewUnauthorizedError("only the creator or an admin may modify this idea")
}

// CanRemoveComment permits the comment author only.
func CanRemoveComment(actor valueobjects.Actor, author string) error {
	if actor.IsZero() {
		return pkgerrors.NewUnauthorizedError("an actor is required")
	}
	if actor.ID == author {
		return nil
	}
	return pkgerrors.NewUnauthorizedError("only the author may remove this comment")
}

// CanAudit permits any privileged role, or the owner of the audited record.
func CanAudit(actor valueobjects.Actor, owner string) error {
	if actor.IsZero() {
		return pkgerrors.NewUnauthorizedError("an actor is required")
	}
	if actor.Roles.HasAny(valueobjects.KnownRoles...) || (owner != "" && actor.ID == owner) {
		return nil
	}
	return pkgerrors.NewUnauthorizedError("audit access requires a privileged role")
}

// CanManageStatusChoices permits admins and supervisors.
func CanManageStatusChoices(actor valueobjects.Actor) error {
	if actor.Roles.HasAny(valueobjects.RoleAdmin, valueobjects.RoleSupervisor) {
		return nil
	}
	return pkgerrors.NewUnauthorizedError("managing status choices requires admin or supervisor")
}

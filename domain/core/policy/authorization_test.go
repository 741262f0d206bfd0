package policy_test

import (
	"testing"

	"ideabox/domain/core/policy"
	"ideabox/domain/core/valueobjects"
	pkgerrors "ideabox/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func actor(id string, roles ...string) valueobjects.Actor {
	return valueobjects.NewActor(id, valueobjects.ParseRoleSet(roles...))
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		gate    policy.Gate
		actor   valueobjects.Actor
		owner   string
		allowed bool
	}{
		{"open gate admits anyone", policy.GateOpen, actor("anyone"), "alice", true},
		{"owner may modify", policy.GateOwnerOrAdmin, actor("alice"), "alice", true},
		{"admin may modify", policy.GateOwnerOrAdmin, actor("root", "admin"), "alice", true},
		{"supervisor may not modify", policy.GateOwnerOrAdmin, actor("sue", "supervisor"), "alice", false},
		{"moderator may not modify", policy.GateOwnerOrAdmin, actor("mo", "moderator"), "alice", false},
		{"stranger may not modify", policy.GateOwnerOrAdmin, actor("bob"), "alice", false},
		{"unknown role token grants nothing", policy.GateOwnerOrAdmin, actor("bob", "superuser,root"), "alice", false},
		{"role parsing ignores case and space", policy.GateOwnerOrAdmin, actor("bob", " Admin "), "alice", true},
		{"author may remove comment", policy.GateAuthorOnly, actor("bob"), "bob", true},
		{"admin may not remove comment", policy.GateAuthorOnly, actor("root", "admin"), "bob", false},
		{"moderator may audit", policy.GatePrivileged, actor("mo", "moderator"), "alice", true},
		{"owner may audit", policy.GatePrivileged, actor("alice"), "alice", true},
		{"stranger may not audit", policy.GatePrivileged, actor("bob"), "alice", false},
		{"missing actor is refused", policy.GateOwnerOrAdmin, valueobjects.Actor{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Check(tt.gate, tt.actor, tt.owner)

			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, pkgerrors.IsUnauthorized(err), "expected Unauthorized, got %v", err)
		})
	}
}

func TestCanManageStatusChoices(t *testing.T) {
	assert.NoError(t, policy.CanManageStatusChoices(actor("root", "admin")))
	assert.NoError(t, policy.CanManageStatusChoices(actor("sue", "supervisor")))
	assert.True(t, pkgerrors.IsUnauthorized(policy.CanManageStatusChoices(actor("mo", "moderator"))))
	assert.True(t, pkgerrors.IsUnauthorized(policy.CanManageStatusChoices(actor("bob"))))
}

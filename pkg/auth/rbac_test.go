package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRBACManager_DefaultRoleMatrix(t *testing.T) {
	manager := NewRBACManager()

	testCases := []struct {
		name       string
		role       Role
		permission Permission
		expected   bool
	}{
		{"admin can use routing", RoleAdmin, PermissionRoutingUse, true},
		{"admin can read audit", RoleAdmin, PermissionRoutingAudit, true},
		{"admin can manage system", RoleAdmin, PermissionManageSystem, true},
		{"routing operator can read stats", RoleRouting, PermissionRoutingStats, true},
		{"routing operator cannot read audit", RoleRouting, PermissionRoutingAudit, false},
		{"user can manage profile", RoleUser, PermissionRoutingProfile, true},
		{"user cannot read stats", RoleUser, PermissionRoutingStats, false},
		{"guest can use routing", RoleGuest, PermissionRoutingUse, true},
		{"guest cannot manage profile", RoleGuest, PermissionRoutingProfile, false},
		{"unknown role has nothing", Role("operator"), PermissionRoutingUse, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, manager.HasPermission(tc.role, tc.permission))
		})
	}
}

func TestRBACManager_CheckUserPermission(t *testing.T) {
	manager := NewRBACManager()

	// Any one of the user's roles granting the permission is enough.
	assert.True(t, manager.CheckUserPermission([]string{"guest", "routing"}, PermissionRoutingStats))
	assert.False(t, manager.CheckUserPermission([]string{"guest", "user"}, PermissionRoutingAudit))
	assert.False(t, manager.CheckUserPermission(nil, PermissionRoutingUse))
}

func TestRBACManager_HasAnyPermission(t *testing.T) {
	manager := NewRBACManager()

	assert.True(t, manager.HasAnyPermission(RoleUser, PermissionRoutingStats, PermissionRoutingProfile))
	assert.False(t, manager.HasAnyPermission(RoleGuest, PermissionRoutingStats, PermissionRoutingAudit))
}

func TestRBACManager_AddRemovePermission(t *testing.T) {
	manager := NewRBACManager()

	manager.AddPermissionToRole(RoleGuest, PermissionRoutingStats)
	assert.True(t, manager.HasPermission(RoleGuest, PermissionRoutingStats))

	// Adding twice must not duplicate.
	manager.AddPermissionToRole(RoleGuest, PermissionRoutingStats)
	count := 0
	for _, p := range manager.GetRolePermissions(RoleGuest) {
		if p == PermissionRoutingStats {
			count++
		}
	}
	assert.Equal(t, 1, count)

	manager.RemovePermissionFromRole(RoleGuest, PermissionRoutingStats)
	assert.False(t, manager.HasPermission(RoleGuest, PermissionRoutingStats))
}

func TestRBACManager_ValidateRole(t *testing.T) {
	manager := NewRBACManager()

	assert.NoError(t, manager.ValidateRole("admin"))
	assert.NoError(t, manager.ValidateRole("routing"))
	assert.Error(t, manager.ValidateRole("superuser"))
}

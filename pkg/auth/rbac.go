package auth

import (
	"fmt"
	"sync"
)

// Role represents a user role
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleRouting Role = "routing"
	RoleUser    Role = "user"
	RoleGuest   Role = "guest"
)

// Permission represents a permission
type Permission string

const (
	// Routing permissions
	PermissionRoutingUse     Permission = "routing:use"
	PermissionRoutingProfile Permission = "routing:profile"
	PermissionRoutingStats   Permission = "routing:stats"
	PermissionRoutingAudit   Permission = "routing:audit"

	// System permissions
	PermissionReadMetrics  Permission = "system:metrics"
	PermissionManageSystem Permission = "system:manage"
)

// RBACManager manages role-based access control
type RBACManager struct {
	mu              sync.RWMutex
	rolePermissions map[Role][]Permission
}

// NewRBACManager creates a new RBAC manager
func NewRBACManager() *RBACManager {
	manager := &RBACManager{
		rolePermissions: make(map[Role][]Permission),
	}
	manager.initializeDefaultRoles()
	return manager
}

// initializeDefaultRoles initializes default role permissions
func (m *RBACManager) initializeDefaultRoles() {
	// Admin - Full access
	m.rolePermissions[RoleAdmin] = []Permission{
		PermissionRoutingUse,
		PermissionRoutingProfile,
		PermissionRoutingStats,
		PermissionRoutingAudit,
		PermissionReadMetrics,
		PermissionManageSystem,
	}

	// Routing operator - routing plus its observability surfaces
	m.rolePermissions[RoleRouting] = []Permission{
		PermissionRoutingUse,
		PermissionRoutingProfile,
		PermissionRoutingStats,
		PermissionReadMetrics,
	}

	// User - Standard user access
	m.rolePermissions[RoleUser] = []Permission{
		PermissionRoutingUse,
		PermissionRoutingProfile,
	}

	// Guest - Limited access
	m.rolePermissions[RoleGuest] = []Permission{
		PermissionRoutingUse,
	}
}

// HasPermission checks if a role has a specific permission
func (m *RBACManager) HasPermission(role Role, permission Permission) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	permissions, exists := m.rolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// HasAnyPermission checks if a role has any of the specified permissions
func (m *RBACManager) HasAnyPermission(role Role, permissions ...Permission) bool {
	for _, permission := range permissions {
		if m.HasPermission(role, permission) {
			return true
		}
	}
	return false
}

// CheckUserPermission checks if a user (with multiple roles) has a permission
func (m *RBACManager) CheckUserPermission(roles []string, permission Permission) bool {
	for _, roleStr := range roles {
		role := Role(roleStr)
		if m.HasPermission(role, permission) {
			return true
		}
	}
	return false
}

// AddPermissionToRole adds a permission to a role
func (m *RBACManager) AddPermissionToRole(role Role, permission Permission) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if permissions, exists := m.rolePermissions[role]; exists {
		for _, p := range permissions {
			if p == permission {
				return
			}
		}
		m.rolePermissions[role] = append(permissions, permission)
	} else {
		m.rolePermissions[role] = []Permission{permission}
	}
}

// RemovePermissionFromRole removes a permission from a role
func (m *RBACManager) RemovePermissionFromRole(role Role, permission Permission) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if permissions, exists := m.rolePermissions[role]; exists {
		newPermissions := make([]Permission, 0, len(permissions))
		for _, p := range permissions {
			if p != permission {
				newPermissions = append(newPermissions, p)
			}
		}
		m.rolePermissions[role] = newPermissions
	}
}

// GetRolePermissions returns all permissions for a role
func (m *RBACManager) GetRolePermissions(role Role) []Permission {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if permissions, exists := m.rolePermissions[role]; exists {
		result := make([]Permission, len(permissions))
		copy(result, permissions)
		return result
	}
	return []Permission{}
}

// ValidateRole checks if a role is valid
func (m *RBACManager) ValidateRole(role string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r := Role(role)
	if _, exists := m.rolePermissions[r]; !exists {
		return fmt.Errorf("invalid role: %s", role)
	}
	return nil
}

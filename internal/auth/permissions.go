package auth

import (
	"sync"

	"github.com/aethra/misight/internal/models"
)

// Action represents a permission action
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

// UserPermission represents computed permissions for a role on a section
type UserPermission struct {
	CanView   bool
	CanCreate bool
	CanEdit   bool
	CanDelete bool
	CanExport bool
}

// Policy is the role-by-section permission matrix. Missing entries deny everything.
type Policy struct {
	mu     sync.RWMutex
	grants map[string]map[models.Role]UserPermission
}

// NewPolicy creates an empty policy
func NewPolicy() *Policy {
	return &Policy{grants: make(map[string]map[models.Role]UserPermission)}
}

// Grant merges perm into what role already holds on section (OR logic)
func (p *Policy) Grant(section string, role models.Role, perm UserPermission) {
	p.mu.Lock()
	defer p.mu.Unlock()

	byRole, ok := p.grants[section]
	if !ok {
		byRole = make(map[models.Role]UserPermission)
		p.grants[section] = byRole
	}
	existing := byRole[role]
	byRole[role] = UserPermission{
		CanView:   existing.CanView || perm.CanView,
		CanCreate: existing.CanCreate || perm.CanCreate,
		CanEdit:   existing.CanEdit || perm.CanEdit,
		CanDelete: existing.CanDelete || perm.CanDelete,
		CanExport: existing.CanExport || perm.CanExport,
	}
}

// GetUserPermission returns the permissions of role on section
func (p *Policy) GetUserPermission(role models.Role, section string) UserPermission {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.grants[section][role]
}

// CheckPermission checks if a role may perform action on section
func (p *Policy) CheckPermission(role models.Role, section string, action Action) bool {
	perm := p.GetUserPermission(role, section)

	switch action {
	case ActionView:
		return perm.CanView
	case ActionCreate:
		return perm.CanCreate
	case ActionEdit:
		return perm.CanEdit
	case ActionDelete:
		return perm.CanDelete
	case ActionExport:
		return perm.CanExport
	default:
		return false
	}
}

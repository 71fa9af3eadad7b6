package repository

import (
	"sort"

	"github.com/noah-isme/grade-ledger-api/internal/models"
)

// RoleStore maps identities to their single ledger role. Access is
// serialized by the owning ledger.
type RoleStore struct {
	roles map[string]models.Role
}

// NewRoleStore constructs an empty role map.
func NewRoleStore() *RoleStore {
	return &RoleStore{roles: make(map[string]models.Role)}
}

// Get returns the identity's role, NONE when unassigned.
func (s *RoleStore) Get(identity string) models.Role {
	if role, ok := s.roles[identity]; ok {
		return role
	}
	return models.RoleNone
}

// Set overwrites the identity's role. Setting NONE keeps the entry so the
// identity stays known to the registry.
func (s *RoleStore) Set(identity string, role models.Role) {
	s.roles[identity] = role
}

// List returns every identity currently holding a role, sorted by identity.
func (s *RoleStore) List() []models.RoleAssignment {
	out := make([]models.RoleAssignment, 0, len(s.roles))
	for identity, role := range s.roles {
		if role == models.RoleNone {
			continue
		}
		out = append(out, models.RoleAssignment{Identity: identity, Role: role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

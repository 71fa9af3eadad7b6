package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
)

// RoleService manages the identity to role registry.
type RoleService struct {
	ledger *Ledger
	logger *zap.Logger
}

// NewRoleService constructs a RoleService.
func NewRoleService(ledger *Ledger, logger *zap.Logger) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{ledger: ledger, logger: logger}
}

// Authority returns the identity allowed to manage the registry.
func (s *RoleService) Authority() string {
	return s.ledger.Authority()
}

// AssignRole sets identity's role, overwriting any previous one.
func (s *RoleService) AssignRole(ctx context.Context, caller, identity string, role models.Role) (*models.RoleAssignment, error) {
	identity = strings.TrimSpace(identity)
	_, err := s.ledger.Commit(ctx, caller, func(st *repository.LedgerState, now time.Time) ([]models.Event, error) {
		if caller != s.ledger.Authority() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only the authority may assign roles")
		}
		if models.IsNullIdentity(identity) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "identity is required")
		}
		if !role.Valid() || role == models.RoleNone {
			return nil, appErrors.Clone(appErrors.ErrValidation, "role must be STUDENT, TEACHER, DEPARTMENT_HEAD or GENERAL_DIRECTOR")
		}
		evt, err := models.NewEvent(models.EventRoleAssigned, caller, now, models.RoleAssignedPayload{
			Identity:     identity,
			Role:         role,
			PreviousRole: st.Roles.Get(identity),
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode role event")
		}
		return []models.Event{evt}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("role assigned", zap.String("identity", identity), zap.String("role", string(role)))
	return &models.RoleAssignment{Identity: identity, Role: role}, nil
}

// RevokeRole resets identity's role to NONE.
func (s *RoleService) RevokeRole(ctx context.Context, caller, identity string) error {
	identity = strings.TrimSpace(identity)
	_, err := s.ledger.Commit(ctx, caller, func(st *repository.LedgerState, now time.Time) ([]models.Event, error) {
		if caller != s.ledger.Authority() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only the authority may revoke roles")
		}
		if models.IsNullIdentity(identity) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "identity is required")
		}
		previous := st.Roles.Get(identity)
		if previous == models.RoleNone {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "identity has no role")
		}
		evt, err := models.NewEvent(models.EventRoleRevoked, caller, now, models.RoleRevokedPayload{Identity: identity, PreviousRole: previous})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode role event")
		}
		return []models.Event{evt}, nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("role revoked", zap.String("identity", identity))
	return nil
}

// GetRole returns identity's role, NONE when unassigned.
func (s *RoleService) GetRole(identity string) models.Role {
	role := models.RoleNone
	_ = s.ledger.Read(func(st *repository.LedgerState) error {
		role = st.Roles.Get(strings.TrimSpace(identity))
		return nil
	})
	return role
}

// ListRoles returns every identity currently holding a role.
func (s *RoleService) ListRoles() []models.RoleAssignment {
	var out []models.RoleAssignment
	_ = s.ledger.Read(func(st *repository.LedgerState) error {
		out = st.Roles.List()
		return nil
	})
	return out
}

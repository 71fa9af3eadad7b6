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

// AccessService lets students share their records with other identities.
type AccessService struct {
	ledger *Ledger
	logger *zap.Logger
}

// NewAccessService constructs an AccessService.
func NewAccessService(ledger *Ledger, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{ledger: ledger, logger: logger}
}

// hasAccess is the single read authorization predicate: the student, any
// staff member, or an explicitly granted viewer.
func hasAccess(st *repository.LedgerState, student, viewer string) bool {
	if viewer == student {
		return true
	}
	if st.Roles.Get(viewer).Staff() {
		return true
	}
	return st.Access.Has(student, viewer)
}

// Grant allows viewer to read the caller's records.
func (s *AccessService) Grant(ctx context.Context, caller, viewer string) (*models.AccessGrant, error) {
	viewer = strings.TrimSpace(viewer)
	_, err := s.ledger.Commit(ctx, caller, func(st *repository.LedgerState, now time.Time) ([]models.Event, error) {
		if st.Roles.Get(caller) != models.RoleStudent {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only students may grant access")
		}
		if models.IsNullIdentity(viewer) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "viewer is required")
		}
		if viewer == caller {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cannot grant access to yourself")
		}
		if st.Access.Has(caller, viewer) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "access already granted")
		}
		return accessEvent(models.EventAccessGranted, caller, viewer, now)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("access granted", zap.String("student", caller), zap.String("viewer", viewer))
	return &models.AccessGrant{Student: caller, Viewer: viewer}, nil
}

// Revoke withdraws a grant previously given by the caller.
func (s *AccessService) Revoke(ctx context.Context, caller, viewer string) error {
	viewer = strings.TrimSpace(viewer)
	_, err := s.ledger.Commit(ctx, caller, func(st *repository.LedgerState, now time.Time) ([]models.Event, error) {
		if !st.Access.Has(caller, viewer) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "access grant not found")
		}
		return accessEvent(models.EventAccessRevoked, caller, viewer, now)
	})
	if err != nil {
		return err
	}
	s.logger.Info("access revoked", zap.String("student", caller), zap.String("viewer", viewer))
	return nil
}

// ListGranted returns the student's current viewers.
func (s *AccessService) ListGranted(caller, student string) ([]string, error) {
	var out []string
	err := s.ledger.Read(func(st *repository.LedgerState) error {
		if !hasAccess(st, student, caller) {
			return appErrors.Clone(appErrors.ErrForbidden, "no access to this student's records")
		}
		out = st.Access.List(student)
		return nil
	})
	return out, err
}

// HasAccess reports whether viewer may read student's records.
func (s *AccessService) HasAccess(student, viewer string) bool {
	var ok bool
	_ = s.ledger.Read(func(st *repository.LedgerState) error {
		ok = hasAccess(st, student, viewer)
		return nil
	})
	return ok
}

func accessEvent(eventType models.EventType, student, viewer string, now time.Time) ([]models.Event, error) {
	evt, err := models.NewEvent(eventType, student, now, models.AccessPayload{Student: student, Viewer: viewer})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode access event")
	}
	return []models.Event{evt}, nil
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
	"github.com/noah-isme/grade-ledger-api/pkg/validation"
)

// CourseService manages the course catalog.
type CourseService struct {
	ledger    *Ledger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(ledger *Ledger, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{ledger: ledger, validator: validate, logger: logger}
}

// RegisterCourse adds a course or renames an existing one.
func (s *CourseService) RegisterCourse(ctx context.Context, caller string, req models.RegisterCourseRequest) (*models.Course, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	_, err := s.ledger.Commit(ctx, caller, func(st *repository.LedgerState, now time.Time) ([]models.Event, error) {
		if caller != s.ledger.Authority() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only the authority may register courses")
		}
		if err := s.validator.Struct(req); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validation.Message(err, "invalid course payload"))
		}
		if !models.ValidCourseCode(req.Code) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course code must be 3 to 20 bytes")
		}
		evt, err := models.NewEvent(models.EventCourseRegistered, caller, now, models.CourseRegisteredPayload{
			Code:    req.Code,
			Name:    req.Name,
			Updated: st.Courses.Exists(req.Code),
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode course event")
		}
		return []models.Event{evt}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("course registered", zap.String("code", req.Code))
	return &models.Course{Code: req.Code, Name: req.Name}, nil
}

// GetCourseName returns the display name, empty for unknown codes.
func (s *CourseService) GetCourseName(code string) string {
	var name string
	_ = s.ledger.Read(func(st *repository.LedgerState) error {
		name = st.Courses.Name(code)
		return nil
	})
	return name
}

// ListCourses returns the catalog in first-registration order.
func (s *CourseService) ListCourses() []models.Course {
	var out []models.Course
	_ = s.ledger.Read(func(st *repository.LedgerState) error {
		out = st.Courses.List()
		return nil
	})
	return out
}

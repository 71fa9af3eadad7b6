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
	"github.com/noah-isme/grade-ledger-api/pkg/integrity"
	"github.com/noah-isme/grade-ledger-api/pkg/validation"
)

// GradeWorkflowService drives grade records through teacher creation,
// department verification and director ratification, and serves the
// access-checked read paths over them.
type GradeWorkflowService struct {
	ledger    *Ledger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeWorkflowService constructs the workflow service.
func NewGradeWorkflowService(ledger *Ledger, validate *validator.Validate, logger *zap.Logger) *GradeWorkflowService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeWorkflowService{ledger: ledger, validator: validate, logger: logger}
}

func tokenFields(rec models.GradeRecord, signer string, action integrity.Action) integrity.Fields {
	return integrity.Fields{
		ID:         rec.ID,
		Student:    rec.Student,
		CourseCode: rec.CourseCode,
		Grade:      rec.Grade,
		Semester:   rec.Semester,
		Signer:     signer,
		Action:     action,
		CreatedAt:  rec.CreatedAt,
	}
}

// CreateGrade records a new PENDING grade signed by the calling teacher.
func (s *GradeWorkflowService) CreateGrade(ctx context.Context, caller string, req models.CreateGradeRequest) (*models.GradeRecord, error) {
	req.Student = strings.TrimSpace(req.Student)
	req.CourseCode = strings.TrimSpace(req.CourseCode)

	var created models.GradeRecord
	_, err := s.ledger.Commit(ctx, caller, func(st *repository.LedgerState, now time.Time) ([]models.Event, error) {
		if st.Roles.Get(caller) != models.RoleTeacher {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers may create grades")
		}
		if st.Roles.Get(req.Student) != models.RoleStudent {
			return nil, appErrors.Clone(appErrors.ErrStudentRoleRequired, "grade subject must hold the student role")
		}
		if err := s.validator.Struct(req); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validation.Message(err, "invalid grade payload"))
		}
		if !models.ValidCourseCode(req.CourseCode) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course code must be 3 to 20 bytes")
		}
		if !st.Courses.Exists(req.CourseCode) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotRegistered, "course "+req.CourseCode+" is not registered")
		}

		rec := models.GradeRecord{
			ID:         st.Grades.NextID(),
			Student:    req.Student,
			CourseCode: req.CourseCode,
			Grade:      *req.Grade,
			Semester:   req.Semester,
			Status:     models.GradeStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		token := integrity.Generate(tokenFields(rec, caller, integrity.ActionTeacherSign))
		if st.Tokens.IsUsed(token) {
			return nil, appErrors.Clone(appErrors.ErrTokenReplay, "teacher token already used")
		}
		rec.Teacher = models.Signature{Signer: caller, Token: token}

		evt, err := models.NewEvent(models.EventGradeCreated, caller, now, models.GradeCreatedPayload{Record: rec})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode grade event")
		}
		created = rec
		return []models.Event{evt}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("grade created", zap.Uint64("id", created.ID), zap.String("student", created.Student), zap.String("course", created.CourseCode))
	return &created, nil
}

// VerifyGrade moves a PENDING record to DEPARTMENT_VERIFIED.
func (s *GradeWorkflowService) VerifyGrade(ctx context.Context, caller string, id uint64) (*models.GradeRecord, error) {
	return s.sign(ctx, caller, id, signStep{
		role:     models.RoleDepartmentHead,
		from:     models.GradeStatusPending,
		action:   integrity.ActionDepartmentVerify,
		event:    models.EventGradeVerified,
		roleText: "only department heads may verify grades",
	})
}

// RatifyGrade finalizes a DEPARTMENT_VERIFIED record.
func (s *GradeWorkflowService) RatifyGrade(ctx context.Context, caller string, id uint64) (*models.GradeRecord, error) {
	return s.sign(ctx, caller, id, signStep{
		role:     models.RoleGeneralDirector,
		from:     models.GradeStatusDepartmentVerified,
		action:   integrity.ActionDirectorRatify,
		event:    models.EventGradeRatified,
		roleText: "only the general director may ratify grades",
		finalize: true,
	})
}

type signStep struct {
	role     models.Role
	from     models.GradeStatus
	action   integrity.Action
	event    models.EventType
	roleText string
	finalize bool
}

func (s *GradeWorkflowService) sign(ctx context.Context, caller string, id uint64, step signStep) (*models.GradeRecord, error) {
	_, err := s.ledger.Commit(ctx, caller, func(st *repository.LedgerState, now time.Time) ([]models.Event, error) {
		if st.Roles.Get(caller) != step.role {
			return nil, appErrors.Clone(appErrors.ErrForbidden, step.roleText)
		}
		rec, ok := st.Grades.Get(id)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade record not found")
		}
		if rec.Status != step.from {
			return nil, appErrors.Clone(appErrors.ErrWrongState, "grade is "+string(rec.Status)+", expected "+string(step.from))
		}
		token := integrity.Generate(tokenFields(rec, caller, step.action))
		if st.Tokens.IsUsed(token) {
			return nil, appErrors.Clone(appErrors.ErrTokenReplay, "signature token already used")
		}

		signed, err := models.NewEvent(step.event, caller, now, models.GradeSignedPayload{ID: id, Signer: caller, Token: token, At: now})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode grade event")
		}
		events := []models.Event{signed}
		if step.finalize {
			finalized, err := models.NewEvent(models.EventGradeFinalized, caller, now, models.GradeFinalizedPayload{
				ID:         rec.ID,
				Student:    rec.Student,
				CourseCode: rec.CourseCode,
				Grade:      rec.Grade,
				At:         now,
			})
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode grade event")
			}
			events = append(events, finalized)
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	var out models.GradeRecord
	_ = s.ledger.Read(func(st *repository.LedgerState) error {
		out, _ = st.Grades.Get(id)
		return nil
	})
	s.logger.Info("grade signed", zap.Uint64("id", id), zap.String("action", string(step.action)), zap.String("status", string(out.Status)))
	return &out, nil
}

func (s *GradeWorkflowService) record(id uint64, fn func(st *repository.LedgerState, rec models.GradeRecord) error) error {
	return s.ledger.Read(func(st *repository.LedgerState) error {
		rec, ok := st.Grades.Get(id)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "grade record not found")
		}
		return fn(st, rec)
	})
}

// VerifySignatures recomputes every present token from the stored content.
func (s *GradeWorkflowService) VerifySignatures(id uint64) (*models.SignatureCheck, error) {
	var check models.SignatureCheck
	err := s.record(id, func(_ *repository.LedgerState, rec models.GradeRecord) error {
		check = checkSignatures(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &check, nil
}

func checkSignatures(rec models.GradeRecord) models.SignatureCheck {
	slot := func(sig models.Signature, action integrity.Action) bool {
		return sig.Present() && integrity.Matches(tokenFields(rec, sig.Signer, action), sig.Token)
	}
	check := models.SignatureCheck{
		TeacherValid:    slot(rec.Teacher, integrity.ActionTeacherSign),
		DepartmentValid: slot(rec.Department, integrity.ActionDepartmentVerify),
		DirectorValid:   slot(rec.Director, integrity.ActionDirectorRatify),
	}
	check.AllValid = check.TeacherValid && check.DepartmentValid && check.DirectorValid
	return check
}

// IsFinalized reports whether the record reached FINALIZED.
func (s *GradeWorkflowService) IsFinalized(id uint64) (bool, error) {
	info, err := s.Status(id)
	if err != nil {
		return false, err
	}
	return info.Finalized, nil
}

// StatusText returns the fixed label for the record's status.
func (s *GradeWorkflowService) StatusText(id uint64) (string, error) {
	info, err := s.Status(id)
	if err != nil {
		return "", err
	}
	return info.StatusText, nil
}

// Status returns the record's status with its label.
func (s *GradeWorkflowService) Status(id uint64) (*models.GradeStatusInfo, error) {
	var info models.GradeStatusInfo
	err := s.record(id, func(_ *repository.LedgerState, rec models.GradeRecord) error {
		info = models.GradeStatusInfo{ID: rec.ID, Status: rec.Status, StatusText: rec.Status.Text(), Finalized: rec.Finalized()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GetGradeInfo returns the full record, signers and tokens included.
func (s *GradeWorkflowService) GetGradeInfo(caller string, id uint64) (*models.GradeRecord, error) {
	var out models.GradeRecord
	err := s.record(id, func(st *repository.LedgerState, rec models.GradeRecord) error {
		if !hasAccess(st, rec.Student, caller) {
			return appErrors.Clone(appErrors.ErrForbidden, "no access to this grade")
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ViewGrade returns the student-facing projection of one record.
func (s *GradeWorkflowService) ViewGrade(caller string, id uint64) (*models.GradeView, error) {
	var out models.GradeView
	err := s.record(id, func(st *repository.LedgerState, rec models.GradeRecord) error {
		if !hasAccess(st, rec.Student, caller) {
			return appErrors.Clone(appErrors.ErrForbidden, "no access to this grade")
		}
		out = gradeView(st, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func gradeView(st *repository.LedgerState, rec models.GradeRecord) models.GradeView {
	return models.GradeView{
		ID:         rec.ID,
		CourseCode: rec.CourseCode,
		CourseName: st.Courses.Name(rec.CourseCode),
		Grade:      rec.Grade,
		Semester:   rec.Semester,
		Status:     rec.Status,
		StatusText: rec.Status.Text(),
		Finalized:  rec.Finalized(),
	}
}

// ViewMyGrades returns the caller's own records.
func (s *GradeWorkflowService) ViewMyGrades(caller string) ([]models.GradeView, error) {
	return s.ViewStudentGrades(caller, caller)
}

// ViewMyGradeIDs returns the ids of the caller's own records.
func (s *GradeWorkflowService) ViewMyGradeIDs(caller string) ([]uint64, error) {
	return s.ViewStudentGradeIDs(caller, caller)
}

// ViewStudentGrades returns student's records in creation order.
func (s *GradeWorkflowService) ViewStudentGrades(caller, student string) ([]models.GradeView, error) {
	var out []models.GradeView
	err := s.ledger.Read(func(st *repository.LedgerState) error {
		if !hasAccess(st, student, caller) {
			return appErrors.Clone(appErrors.ErrForbidden, "no access to this student's grades")
		}
		ids := st.Grades.IDsByStudent(student)
		out = make([]models.GradeView, 0, len(ids))
		for _, id := range ids {
			rec, _ := st.Grades.Get(id)
			out = append(out, gradeView(st, rec))
		}
		return nil
	})
	return out, err
}

// ViewStudentGradeIDs returns the ids of student's records in creation order.
func (s *GradeWorkflowService) ViewStudentGradeIDs(caller, student string) ([]uint64, error) {
	var out []uint64
	err := s.ledger.Read(func(st *repository.LedgerState) error {
		if !hasAccess(st, student, caller) {
			return appErrors.Clone(appErrors.ErrForbidden, "no access to this student's grades")
		}
		out = st.Grades.IDsByStudent(student)
		return nil
	})
	return out, err
}

// VerifyStudentGrade reports the first record, in creation order, that
// student holds for courseCode. A missing course yields a sentinel rather
// than an error.
func (s *GradeWorkflowService) VerifyStudentGrade(caller, student, courseCode string) (*models.CourseGradeCheck, error) {
	out := models.CourseGradeCheck{Status: models.GradeStatusPending}
	err := s.ledger.Read(func(st *repository.LedgerState) error {
		if !hasAccess(st, student, caller) {
			return appErrors.Clone(appErrors.ErrForbidden, "no access to this student's grades")
		}
		for _, id := range st.Grades.IDsByStudent(student) {
			rec, _ := st.Grades.Get(id)
			if rec.CourseCode == courseCode {
				out = models.CourseGradeCheck{Found: true, Grade: rec.Grade, Status: rec.Status}
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

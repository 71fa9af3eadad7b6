package repository

import (
	"fmt"

	"github.com/noah-isme/grade-ledger-api/internal/models"
)

// LedgerState is the full materialised state derived from the event
// journal. It is not safe for concurrent use; the ledger coordinator
// serializes every read and write.
type LedgerState struct {
	Roles   *RoleStore
	Courses *CourseStore
	Tokens  *TokenStore
	Access  *AccessStore
	Grades  *GradeStore

	seq uint64
}

// NewLedgerState constructs an empty state at sequence zero.
func NewLedgerState() *LedgerState {
	return &LedgerState{
		Roles:   NewRoleStore(),
		Courses: NewCourseStore(),
		Tokens:  NewTokenStore(),
		Access:  NewAccessStore(),
		Grades:  NewGradeStore(),
	}
}

// Sequence returns the sequence number of the last applied event.
func (s *LedgerState) Sequence() uint64 {
	return s.seq
}

// Apply folds one event into the state. Events must arrive in contiguous
// sequence order. Every check runs before the first write so a rejected
// event leaves the state untouched.
func (s *LedgerState) Apply(evt models.Event) error {
	if evt.Seq != s.seq+1 {
		return fmt.Errorf("apply event %d at sequence %d: %w", evt.Seq, s.seq, ErrSequenceConflict)
	}
	var err error
	switch evt.Type {
	case models.EventRoleAssigned:
		err = s.applyRoleAssigned(evt)
	case models.EventRoleRevoked:
		err = s.applyRoleRevoked(evt)
	case models.EventCourseRegistered:
		err = s.applyCourseRegistered(evt)
	case models.EventGradeCreated:
		err = s.applyGradeCreated(evt)
	case models.EventGradeVerified:
		err = s.applyGradeSigned(evt, StageDepartment, models.GradeStatusPending, models.GradeStatusDepartmentVerified)
	case models.EventGradeRatified:
		err = s.applyGradeSigned(evt, StageDirector, models.GradeStatusDepartmentVerified, models.GradeStatusFinalized)
	case models.EventGradeFinalized:
		// notification only; the ratification already finalized the record
	case models.EventAccessGranted:
		err = s.applyAccess(evt, true)
	case models.EventAccessRevoked:
		err = s.applyAccess(evt, false)
	default:
		err = ErrUnknownEventType
	}
	if err != nil {
		return fmt.Errorf("apply %s event %d: %w", evt.Type, evt.Seq, err)
	}
	s.seq = evt.Seq
	return nil
}

func (s *LedgerState) applyRoleAssigned(evt models.Event) error {
	var p models.RoleAssignedPayload
	if err := evt.Decode(&p); err != nil {
		return err
	}
	s.Roles.Set(p.Identity, p.Role)
	return nil
}

func (s *LedgerState) applyRoleRevoked(evt models.Event) error {
	var p models.RoleRevokedPayload
	if err := evt.Decode(&p); err != nil {
		return err
	}
	s.Roles.Set(p.Identity, models.RoleNone)
	return nil
}

func (s *LedgerState) applyCourseRegistered(evt models.Event) error {
	var p models.CourseRegisteredPayload
	if err := evt.Decode(&p); err != nil {
		return err
	}
	s.Courses.Put(p.Code, p.Name)
	return nil
}

func (s *LedgerState) applyGradeCreated(evt models.Event) error {
	var p models.GradeCreatedPayload
	if err := evt.Decode(&p); err != nil {
		return err
	}
	if err := s.checkNewRecord(p.Record); err != nil {
		return err
	}
	if s.Tokens.IsUsed(p.Record.Teacher.Token) {
		return ErrTokenUsed
	}
	if err := s.Grades.Insert(p.Record); err != nil {
		return err
	}
	return s.Tokens.MarkUsed(p.Record.Teacher.Token)
}

// checkNewRecord holds a created record to the shape CreateGrade produces
// against the state at that point in the journal.
func (s *LedgerState) checkNewRecord(rec models.GradeRecord) error {
	switch {
	case rec.Status != models.GradeStatusPending:
		return fmt.Errorf("%w: status %s", ErrInvalidRecord, rec.Status)
	case !rec.Teacher.Present():
		return fmt.Errorf("%w: missing teacher signature", ErrInvalidRecord)
	case rec.Department != (models.Signature{}) || rec.Director != (models.Signature{}):
		return fmt.Errorf("%w: later signature slots filled", ErrInvalidRecord)
	case rec.Grade < models.MinGradeValue || rec.Grade > models.MaxGradeValue:
		return fmt.Errorf("%w: grade %d out of range", ErrInvalidRecord, rec.Grade)
	case !models.ValidCourseCode(rec.CourseCode):
		return fmt.Errorf("%w: course code %q", ErrInvalidRecord, rec.CourseCode)
	case rec.FinalizedAt != nil:
		return fmt.Errorf("%w: finalized at creation", ErrInvalidRecord)
	case !rec.UpdatedAt.Equal(rec.CreatedAt):
		return fmt.Errorf("%w: updated before creation settled", ErrInvalidRecord)
	case models.IsNullIdentity(rec.Student):
		return fmt.Errorf("%w: null student", ErrInvalidRecord)
	case !s.Courses.Exists(rec.CourseCode):
		return fmt.Errorf("%w: course %s not registered", ErrInvalidRecord, rec.CourseCode)
	case s.Roles.Get(rec.Student) != models.RoleStudent:
		return fmt.Errorf("%w: %s does not hold the student role", ErrInvalidRecord, rec.Student)
	}
	return nil
}

func (s *LedgerState) applyGradeSigned(evt models.Event, stage GradeStage, from, to models.GradeStatus) error {
	var p models.GradeSignedPayload
	if err := evt.Decode(&p); err != nil {
		return err
	}
	if s.Tokens.IsUsed(p.Token) {
		return ErrTokenUsed
	}
	if err := s.Grades.Transition(TransitionParams{
		ID:        p.ID,
		From:      from,
		To:        to,
		Stage:     stage,
		Signature: models.Signature{Signer: p.Signer, Token: p.Token},
		At:        p.At,
	}); err != nil {
		return err
	}
	return s.Tokens.MarkUsed(p.Token)
}

func (s *LedgerState) applyAccess(evt models.Event, grant bool) error {
	var p models.AccessPayload
	if err := evt.Decode(&p); err != nil {
		return err
	}
	if grant {
		return s.Access.Grant(p.Student, p.Viewer)
	}
	return s.Access.Revoke(p.Student, p.Viewer)
}

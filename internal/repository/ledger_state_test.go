package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grade-ledger-api/internal/models"
)

func mustEvent(t *testing.T, seq uint64, eventType models.EventType, payload interface{}) models.Event {
	t.Helper()
	evt, err := models.NewEvent(eventType, "0xactor", time.Unix(1700000000, 0).UTC(), payload)
	require.NoError(t, err)
	evt.Seq = seq
	return evt
}

func TestLedgerStateApplyWorkflow(t *testing.T) {
	st := NewLedgerState()
	at := time.Unix(1700000500, 0).UTC()
	events := []models.Event{
		mustEvent(t, 1, models.EventRoleAssigned, models.RoleAssignedPayload{Identity: "0xstudent", Role: models.RoleStudent, PreviousRole: models.RoleNone}),
		mustEvent(t, 2, models.EventCourseRegistered, models.CourseRegisteredPayload{Code: "MAT101", Name: "Calculus I"}),
		mustEvent(t, 3, models.EventGradeCreated, models.GradeCreatedPayload{Record: pendingRecord(1, "0xstudent")}),
		mustEvent(t, 4, models.EventGradeVerified, models.GradeSignedPayload{ID: 1, Signer: "0xhead", Token: "0xdept", At: at}),
		mustEvent(t, 5, models.EventGradeRatified, models.GradeSignedPayload{ID: 1, Signer: "0xdirector", Token: "0xdir", At: at}),
		mustEvent(t, 6, models.EventGradeFinalized, models.GradeFinalizedPayload{ID: 1, Student: "0xstudent", CourseCode: "MAT101", Grade: 18, At: at}),
		mustEvent(t, 7, models.EventAccessGranted, models.AccessPayload{Student: "0xstudent", Viewer: "0xparent"}),
	}
	for _, evt := range events {
		require.NoError(t, st.Apply(evt))
	}

	require.Equal(t, uint64(7), st.Sequence())
	require.Equal(t, models.RoleStudent, st.Roles.Get("0xstudent"))
	require.Equal(t, "Calculus I", st.Courses.Name("MAT101"))
	rec, ok := st.Grades.Get(1)
	require.True(t, ok)
	require.Equal(t, models.GradeStatusFinalized, rec.Status)
	require.Equal(t, "0xdirector", rec.Director.Signer)
	require.Equal(t, 3, st.Tokens.Len())
	require.True(t, st.Access.Has("0xstudent", "0xparent"))
}

func TestLedgerStateRejectsGap(t *testing.T) {
	st := NewLedgerState()
	err := st.Apply(mustEvent(t, 2, models.EventCourseRegistered, models.CourseRegisteredPayload{Code: "MAT101", Name: "Calculus"}))
	require.ErrorIs(t, err, ErrSequenceConflict)
	require.Equal(t, uint64(0), st.Sequence())
}

// seededState holds a registered MAT101 and a student at sequence 2.
func seededState(t *testing.T) *LedgerState {
	t.Helper()
	st := NewLedgerState()
	require.NoError(t, st.Apply(mustEvent(t, 1, models.EventRoleAssigned, models.RoleAssignedPayload{Identity: "0xstudent", Role: models.RoleStudent})))
	require.NoError(t, st.Apply(mustEvent(t, 2, models.EventCourseRegistered, models.CourseRegisteredPayload{Code: "MAT101", Name: "Calculus I"})))
	return st
}

func TestLedgerStateReplayedTokenLeavesStateUntouched(t *testing.T) {
	st := seededState(t)
	require.NoError(t, st.Apply(mustEvent(t, 3, models.EventGradeCreated, models.GradeCreatedPayload{Record: pendingRecord(1, "0xstudent")})))

	dup := pendingRecord(2, "0xstudent")
	err := st.Apply(mustEvent(t, 4, models.EventGradeCreated, models.GradeCreatedPayload{Record: dup}))
	require.ErrorIs(t, err, ErrTokenUsed)
	require.Equal(t, uint64(3), st.Sequence())
	require.Equal(t, 1, st.Grades.Count())
	require.Equal(t, uint64(2), st.Grades.NextID())

	err = st.Apply(mustEvent(t, 4, models.EventGradeVerified, models.GradeSignedPayload{ID: 1, Signer: "0xhead", Token: "0xtoken"}))
	require.ErrorIs(t, err, ErrTokenUsed)
	rec, _ := st.Grades.Get(1)
	require.Equal(t, models.GradeStatusPending, rec.Status)
}

func TestLedgerStateRejectsWrongTransition(t *testing.T) {
	st := seededState(t)
	require.NoError(t, st.Apply(mustEvent(t, 3, models.EventGradeCreated, models.GradeCreatedPayload{Record: pendingRecord(1, "0xstudent")})))
	err := st.Apply(mustEvent(t, 4, models.EventGradeRatified, models.GradeSignedPayload{ID: 1, Signer: "0xdirector", Token: "0xdir"}))
	require.ErrorIs(t, err, ErrStatusConflict)
	require.False(t, st.Tokens.IsUsed("0xdir"))
}

func TestLedgerStateRejectsMalformedCreatedRecord(t *testing.T) {
	finalized := time.Unix(1700000900, 0).UTC()
	cases := []struct {
		name   string
		mutate func(rec *models.GradeRecord)
	}{
		{"not pending", func(rec *models.GradeRecord) { rec.Status = models.GradeStatusDepartmentVerified }},
		{"grade above range", func(rec *models.GradeRecord) { rec.Grade = 25 }},
		{"grade below range", func(rec *models.GradeRecord) { rec.Grade = -1 }},
		{"department slot filled", func(rec *models.GradeRecord) {
			rec.Department = models.Signature{Signer: "0xhead", Token: "0xdept"}
		}},
		{"director signer only", func(rec *models.GradeRecord) { rec.Director.Signer = "0xdirector" }},
		{"missing teacher token", func(rec *models.GradeRecord) { rec.Teacher.Token = "" }},
		{"short course code", func(rec *models.GradeRecord) { rec.CourseCode = "MA" }},
		{"finalized at creation", func(rec *models.GradeRecord) { rec.FinalizedAt = &finalized }},
		{"updated after creation", func(rec *models.GradeRecord) { rec.UpdatedAt = rec.CreatedAt.Add(time.Second) }},
		{"unregistered course", func(rec *models.GradeRecord) { rec.CourseCode = "PHY201" }},
		{"student without role", func(rec *models.GradeRecord) { rec.Student = "0xnobody" }},
		{"null student", func(rec *models.GradeRecord) { rec.Student = models.NullIdentity }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := seededState(t)
			rec := pendingRecord(1, "0xstudent")
			tc.mutate(&rec)

			err := st.Apply(mustEvent(t, 3, models.EventGradeCreated, models.GradeCreatedPayload{Record: rec}))
			require.ErrorIs(t, err, ErrInvalidRecord)
			require.Equal(t, uint64(2), st.Sequence())
			require.Zero(t, st.Grades.Count())
			require.Zero(t, st.Tokens.Len())
		})
	}
}

func TestLedgerStateRoleRevokeAndAccessRevoke(t *testing.T) {
	st := NewLedgerState()
	require.NoError(t, st.Apply(mustEvent(t, 1, models.EventRoleAssigned, models.RoleAssignedPayload{Identity: "0xt", Role: models.RoleTeacher})))
	require.NoError(t, st.Apply(mustEvent(t, 2, models.EventRoleRevoked, models.RoleRevokedPayload{Identity: "0xt", PreviousRole: models.RoleTeacher})))
	require.Equal(t, models.RoleNone, st.Roles.Get("0xt"))
	require.Empty(t, st.Roles.List())

	err := st.Apply(mustEvent(t, 3, models.EventAccessRevoked, models.AccessPayload{Student: "0xs", Viewer: "0xv"}))
	require.ErrorIs(t, err, ErrAccessMissing)

	err = st.Apply(models.Event{Seq: 3, Type: "UNKNOWN", Payload: []byte(`{}`)})
	require.ErrorIs(t, err, ErrUnknownEventType)
}

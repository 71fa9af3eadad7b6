package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grade-ledger-api/internal/models"
)

func pendingRecord(id uint64, student string) models.GradeRecord {
	now := time.Unix(1700000000, 0).UTC()
	return models.GradeRecord{
		ID:         id,
		Student:    student,
		CourseCode: "MAT101",
		Grade:      18,
		Semester:   "2024-1",
		Status:     models.GradeStatusPending,
		Teacher:    models.Signature{Signer: "0xteacher", Token: "0xtoken"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestGradeStoreInsertOrdering(t *testing.T) {
	s := NewGradeStore()
	require.Equal(t, uint64(1), s.NextID())
	require.ErrorIs(t, s.Insert(pendingRecord(2, "s1")), ErrRecordOutOfOrder)
	require.NoError(t, s.Insert(pendingRecord(1, "s1")))
	require.NoError(t, s.Insert(pendingRecord(2, "s2")))
	require.NoError(t, s.Insert(pendingRecord(3, "s1")))

	require.Equal(t, uint64(4), s.NextID())
	require.Equal(t, []uint64{1, 2, 3}, s.IDs())
	require.Equal(t, []uint64{1, 3}, s.IDsByStudent("s1"))
	require.Empty(t, s.IDsByStudent("unknown"))
	require.Equal(t, 3, s.Count())
}

func TestGradeStoreTransitionCompareAndSet(t *testing.T) {
	s := NewGradeStore()
	require.NoError(t, s.Insert(pendingRecord(1, "s1")))
	at := time.Unix(1700000100, 0).UTC()

	err := s.Transition(TransitionParams{
		ID: 1, From: models.GradeStatusPending, To: models.GradeStatusDepartmentVerified,
		Stage: StageDepartment, Signature: models.Signature{Signer: "0xhead", Token: "0xdept"}, At: at,
	})
	require.NoError(t, err)

	err = s.Transition(TransitionParams{
		ID: 1, From: models.GradeStatusPending, To: models.GradeStatusDepartmentVerified,
		Stage: StageDepartment, Signature: models.Signature{Signer: "0xhead2", Token: "0xdept2"}, At: at,
	})
	require.ErrorIs(t, err, ErrStatusConflict)

	rec, ok := s.Get(1)
	require.True(t, ok)
	require.Equal(t, "0xhead", rec.Department.Signer)
	require.Nil(t, rec.FinalizedAt)

	final := at.Add(time.Minute)
	require.NoError(t, s.Transition(TransitionParams{
		ID: 1, From: models.GradeStatusDepartmentVerified, To: models.GradeStatusFinalized,
		Stage: StageDirector, Signature: models.Signature{Signer: "0xdirector", Token: "0xdir"}, At: final,
	}))
	rec, _ = s.Get(1)
	require.Equal(t, models.GradeStatusFinalized, rec.Status)
	require.NotNil(t, rec.FinalizedAt)
	require.Equal(t, final, *rec.FinalizedAt)
	require.Equal(t, final, rec.UpdatedAt)

	require.ErrorIs(t, s.Transition(TransitionParams{ID: 9}), ErrRecordMissing)
}

func TestGradeStoreGetReturnsCopy(t *testing.T) {
	s := NewGradeStore()
	require.NoError(t, s.Insert(pendingRecord(1, "s1")))
	rec, _ := s.Get(1)
	rec.Grade = 0
	again, _ := s.Get(1)
	require.Equal(t, 18, again.Grade)
}

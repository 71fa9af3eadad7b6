package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
)

func TestCourseServiceRegisterAndRename(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.courses.RegisterCourse(ctx, authority, models.RegisterCourseRequest{Code: "MAT101", Name: "Mathematics"})
	require.NoError(t, err)
	_, err = f.courses.RegisterCourse(ctx, authority, models.RegisterCourseRequest{Code: "PHY201", Name: "Physics"})
	require.NoError(t, err)
	_, err = f.courses.RegisterCourse(ctx, authority, models.RegisterCourseRequest{Code: "MAT101", Name: "Mathematics 101"})
	require.NoError(t, err)

	assert.Equal(t, "Mathematics 101", f.courses.GetCourseName("MAT101"))
	assert.Equal(t, "", f.courses.GetCourseName("UNKNOWN"))
	assert.Equal(t, []models.Course{{Code: "MAT101", Name: "Mathematics 101"}, {Code: "PHY201", Name: "Physics"}}, f.courses.ListCourses())

	events, err := f.journal.List(ctx, models.EventFilter{AfterSeq: 2})
	require.NoError(t, err)
	var payload models.CourseRegisteredPayload
	require.NoError(t, events[0].Decode(&payload))
	assert.True(t, payload.Updated)
}

func TestCourseServiceRejections(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	cases := []struct {
		caller string
		req    models.RegisterCourseRequest
		want   *appErrors.Error
	}{
		{teacher, models.RegisterCourseRequest{Code: "MAT101", Name: "Math"}, appErrors.ErrForbidden},
		{authority, models.RegisterCourseRequest{Code: "MAT101", Name: ""}, appErrors.ErrValidation},
		{authority, models.RegisterCourseRequest{Code: "MA", Name: "Math"}, appErrors.ErrValidation},
		{authority, models.RegisterCourseRequest{Code: "ABCDEFGHIJKLMNOPQRSTU", Name: "Math"}, appErrors.ErrValidation},
	}
	for _, tc := range cases {
		_, err := f.courses.RegisterCourse(ctx, tc.caller, tc.req)
		require.ErrorIs(t, err, tc.want)
	}

	_, err := f.courses.RegisterCourse(ctx, authority, models.RegisterCourseRequest{Code: "ABC", Name: "Min"})
	require.NoError(t, err)
	_, err = f.courses.RegisterCourse(ctx, authority, models.RegisterCourseRequest{Code: "ABCDEFGHIJKLMNOPQRST", Name: "Max"})
	require.NoError(t, err)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
)

func TestAccessServiceGrantRevoke(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed(t)
	ctx := context.Background()

	assert.False(t, f.access.HasAccess(student, viewer))
	assert.True(t, f.access.HasAccess(student, student))
	assert.True(t, f.access.HasAccess(student, teacher))
	assert.True(t, f.access.HasAccess(student, head))
	assert.True(t, f.access.HasAccess(student, director))

	grant, err := f.access.Grant(ctx, student, viewer)
	require.NoError(t, err)
	assert.Equal(t, models.AccessGrant{Student: student, Viewer: viewer}, *grant)
	assert.True(t, f.access.HasAccess(student, viewer))

	_, err = f.access.Grant(ctx, student, viewer)
	require.ErrorIs(t, err, appErrors.ErrAlreadyExists)

	_, err = f.access.Grant(ctx, student, "0xparent")
	require.NoError(t, err)
	list, err := f.access.ListGranted(viewer, student)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{viewer, "0xparent"}, list)

	require.NoError(t, f.access.Revoke(ctx, student, viewer))
	assert.False(t, f.access.HasAccess(student, viewer))
	require.ErrorIs(t, f.access.Revoke(ctx, student, viewer), appErrors.ErrNotFound)

	list, err = f.access.ListGranted(student, student)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xparent"}, list)

	_, err = f.access.ListGranted(viewer, student)
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestAccessServiceGrantRejections(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed(t)
	ctx := context.Background()

	_, err := f.access.Grant(ctx, teacher, viewer)
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = f.access.Grant(ctx, student, student)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = f.access.Grant(ctx, student, "")
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAccessServiceRevokeAfterRoleLoss(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed(t)
	ctx := context.Background()

	_, err := f.access.Grant(ctx, student, viewer)
	require.NoError(t, err)
	require.NoError(t, f.roles.RevokeRole(ctx, authority, student))
	require.NoError(t, f.access.Revoke(ctx, student, viewer))
}

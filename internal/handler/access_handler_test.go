package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
)

type accessServiceMock struct {
	grants map[string][]string
}

func (m *accessServiceMock) Grant(ctx context.Context, caller, viewer string) (*models.AccessGrant, error) {
	for _, v := range m.grants[caller] {
		if v == viewer {
			return nil, appErrors.ErrAlreadyExists
		}
	}
	m.grants[caller] = append(m.grants[caller], viewer)
	return &models.AccessGrant{Student: caller, Viewer: viewer}, nil
}

func (m *accessServiceMock) Revoke(ctx context.Context, caller, viewer string) error {
	return appErrors.ErrNotFound
}

func (m *accessServiceMock) ListGranted(caller, student string) ([]string, error) {
	return m.grants[student], nil
}

func (m *accessServiceMock) HasAccess(student, viewer string) bool {
	for _, v := range m.grants[student] {
		if v == viewer {
			return true
		}
	}
	return false
}

func TestAccessHandlerGrantAndCheck(t *testing.T) {
	svc := &accessServiceMock{grants: map[string][]string{}}
	handler := NewAccessHandler(svc)

	c, w := newGinContext(http.MethodPost, "/access", []byte(`{"viewer":"0xviewer"}`))
	withIdentity(c, "0xstudent")
	handler.Grant(c)
	require.Equal(t, http.StatusCreated, w.Code)

	c, w = newGinContext(http.MethodPost, "/access", []byte(`{"viewer":"0xviewer"}`))
	withIdentity(c, "0xstudent")
	handler.Grant(c)
	require.Equal(t, http.StatusConflict, w.Code)

	c, w = newGinContext(http.MethodGet, "/students/0xstudent/access/0xviewer", nil)
	c.Params = gin.Params{{Key: "student", Value: "0xstudent"}, {Key: "viewer", Value: "0xviewer"}}
	handler.Check(c)
	require.Equal(t, http.StatusOK, w.Code)

	var check models.AccessCheck
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &check))
	assert.True(t, check.Allowed)
}

func TestAccessHandlerGrantRequiresViewer(t *testing.T) {
	handler := NewAccessHandler(&accessServiceMock{grants: map[string][]string{}})
	c, w := newGinContext(http.MethodPost, "/access", []byte(`{}`))
	withIdentity(c, "0xstudent")

	handler.Grant(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccessHandlerRevokeMissing(t *testing.T) {
	handler := NewAccessHandler(&accessServiceMock{grants: map[string][]string{}})
	c, w := newGinContext(http.MethodDelete, "/access/0xviewer", nil)
	c.Params = gin.Params{{Key: "viewer", Value: "0xviewer"}}
	withIdentity(c, "0xstudent")

	handler.Revoke(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

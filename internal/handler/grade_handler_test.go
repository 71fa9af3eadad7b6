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

type gradeWorkflowMock struct {
	gradeWorkflow
	created    models.CreateGradeRequest
	createdBy  string
	createResp *models.GradeRecord
	createErr  error
	verifiedID uint64
	verifyErr  error
	status     *models.GradeStatusInfo
}

func (m *gradeWorkflowMock) CreateGrade(ctx context.Context, caller string, req models.CreateGradeRequest) (*models.GradeRecord, error) {
	m.created = req
	m.createdBy = caller
	return m.createResp, m.createErr
}

func (m *gradeWorkflowMock) VerifyGrade(ctx context.Context, caller string, id uint64) (*models.GradeRecord, error) {
	m.verifiedID = id
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	return &models.GradeRecord{ID: id, Status: models.GradeStatusDepartmentVerified}, nil
}

func (m *gradeWorkflowMock) Status(id uint64) (*models.GradeStatusInfo, error) {
	if m.status == nil {
		return nil, appErrors.ErrNotFound
	}
	return m.status, nil
}

type gradeQueriesMock struct {
	stats models.GradeStats
	hit   bool
	asked models.GradeStatus
}

func (m *gradeQueriesMock) GetGradesByStatus(status models.GradeStatus) ([]uint64, error) {
	m.asked = status
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade status")
	}
	return []uint64{1, 3}, nil
}

func (m *gradeQueriesMock) Stats(ctx context.Context) (models.GradeStats, bool) {
	return m.stats, m.hit
}

func TestGradeHandlerCreate(t *testing.T) {
	grade := 15
	workflow := &gradeWorkflowMock{createResp: &models.GradeRecord{ID: 1, Grade: grade, Status: models.GradeStatusPending}}
	handler := NewGradeHandler(workflow, &gradeQueriesMock{})

	payload, _ := json.Marshal(models.CreateGradeRequest{Student: "0xstudent", CourseCode: "MAT101", Grade: &grade})
	c, w := newGinContext(http.MethodPost, "/grades", payload)
	withIdentity(c, "0xteacher")

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "0xteacher", workflow.createdBy)
	assert.Equal(t, "MAT101", workflow.created.CourseCode)
	require.NotNil(t, workflow.created.Grade)
	assert.Equal(t, 15, *workflow.created.Grade)
}

func TestGradeHandlerCreateRequiresIdentity(t *testing.T) {
	handler := NewGradeHandler(&gradeWorkflowMock{}, &gradeQueriesMock{})
	c, w := newGinContext(http.MethodPost, "/grades", []byte(`{}`))

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGradeHandlerCreateRejectsMalformedBody(t *testing.T) {
	handler := NewGradeHandler(&gradeWorkflowMock{}, &gradeQueriesMock{})
	c, w := newGinContext(http.MethodPost, "/grades", []byte(`{"grade":`))
	withIdentity(c, "0xteacher")

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
}

func TestGradeHandlerCreatePropagatesServiceError(t *testing.T) {
	workflow := &gradeWorkflowMock{createErr: appErrors.Clone(appErrors.ErrCourseNotRegistered, "course not registered")}
	handler := NewGradeHandler(workflow, &gradeQueriesMock{})
	c, w := newGinContext(http.MethodPost, "/grades", []byte(`{"student":"0xs","courseCode":"XYZ999","grade":10}`))
	withIdentity(c, "0xteacher")

	handler.Create(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGradeHandlerVerify(t *testing.T) {
	workflow := &gradeWorkflowMock{}
	handler := NewGradeHandler(workflow, &gradeQueriesMock{})

	c, w := newGinContext(http.MethodPost, "/grades/7/verify", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	withIdentity(c, "0xhead")

	handler.Verify(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(7), workflow.verifiedID)
}

func TestGradeHandlerVerifyWrongState(t *testing.T) {
	workflow := &gradeWorkflowMock{verifyErr: appErrors.ErrWrongState}
	handler := NewGradeHandler(workflow, &gradeQueriesMock{})

	c, w := newGinContext(http.MethodPost, "/grades/7/verify", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	withIdentity(c, "0xhead")

	handler.Verify(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestGradeHandlerRejectsBadID(t *testing.T) {
	handler := NewGradeHandler(&gradeWorkflowMock{}, &gradeQueriesMock{})

	for _, raw := range []string{"0", "abc", "-1"} {
		c, w := newGinContext(http.MethodGet, "/grades/"+raw+"/status", nil)
		c.Params = gin.Params{{Key: "id", Value: raw}}
		handler.Status(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestGradeHandlerStatusNotFound(t *testing.T) {
	handler := NewGradeHandler(&gradeWorkflowMock{}, &gradeQueriesMock{})
	c, w := newGinContext(http.MethodGet, "/grades/9/status", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}

	handler.Status(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGradeHandlerListByStatusNormalisesQuery(t *testing.T) {
	queries := &gradeQueriesMock{}
	handler := NewGradeHandler(&gradeWorkflowMock{}, queries)

	c, w := newGinContext(http.MethodGet, "/grades?status=finalized", nil)
	handler.ListByStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.GradeStatusFinalized, queries.asked)

	var ids []uint64
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &ids))
	assert.Equal(t, []uint64{1, 3}, ids)

	c, w = newGinContext(http.MethodGet, "/grades?status=archived", nil)
	handler.ListByStatus(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGradeHandlerStatsReportsCacheHit(t *testing.T) {
	queries := &gradeQueriesMock{stats: models.GradeStats{Total: 2, Pending: 2, LastSequence: 9}, hit: true}
	handler := NewGradeHandler(&gradeWorkflowMock{}, queries)

	c, w := newGinContext(http.MethodGet, "/grades/stats", nil)
	handler.Stats(c)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, float64(9), env.Meta["ledger_sequence"])

	var stats models.GradeStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 2, stats.Pending)
}

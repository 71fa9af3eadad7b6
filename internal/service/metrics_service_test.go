package service

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grade-ledger-api/internal/models"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/grades/stats", http.StatusOK, time.Millisecond)
	m.RecordCommit([]models.Event{{Seq: 1, Type: models.EventRoleAssigned}, {Seq: 2, Type: models.EventCourseRegistered}}, time.Millisecond)
	m.RecordRejection("FORBIDDEN", time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordDelivery("redis", false)
	m.RecordDelivery("log", true)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.Equal(t, uint64(1), snap.CommitsTotal)
	assert.Equal(t, uint64(1), snap.RejectionsTotal)
	assert.Equal(t, uint64(1), snap.FailedDeliveries)
	assert.InDelta(t, 0.75, snap.CacheHitRatio, 0.0001)
	assert.Positive(t, snap.Goroutines)
}

func TestMetricsServiceExposition(t *testing.T) {
	m := NewMetricsService()
	m.RecordCommit([]models.Event{{Seq: 7, Type: models.EventGradeCreated}}, time.Millisecond)
	m.RecordRejection("WRONG_STATE", time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `ledger_commits_total{type="GRADE_CREATED"} 1`)
	assert.Contains(t, text, `ledger_rejections_total{code="WRONG_STATE"} 1`)
	assert.Contains(t, text, "ledger_sequence 7")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordCommit(nil, time.Second)
	m.RecordRejection("X", time.Second)
	m.SetSequence(3)
	assert.Equal(t, models.MetricsSnapshot{}, m.Snapshot())

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

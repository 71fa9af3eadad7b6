package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/internal/service"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
	"github.com/noah-isme/grade-ledger-api/pkg/export"
)

type transcriptServiceMock struct {
	format   export.Format
	download *service.TranscriptDownload
}

func (m *transcriptServiceMock) Generate(ctx context.Context, caller, student string, format export.Format) (*models.TranscriptExport, error) {
	m.format = format
	return &models.TranscriptExport{ID: "t-1", Student: student, Format: string(format), URL: "/api/v1/transcripts/tok", ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (m *transcriptServiceMock) Open(token string) (*service.TranscriptDownload, error) {
	if m.download == nil {
		return nil, appErrors.ErrNotFound
	}
	return m.download, nil
}

func TestTranscriptHandlerGenerateDefaultsToCSV(t *testing.T) {
	svc := &transcriptServiceMock{}
	handler := NewTranscriptHandler(svc)

	c, w := newGinContext(http.MethodPost, "/students/0xstudent/transcripts", nil)
	c.Params = gin.Params{{Key: "student", Value: "0xstudent"}}
	withIdentity(c, "0xstudent")
	handler.Generate(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, export.FormatCSV, svc.format)
}

func TestTranscriptHandlerDownload(t *testing.T) {
	content := []byte("ID,Course\n1,MAT101\n")
	path := filepath.Join(t.TempDir(), "t-1.csv")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	svc := &transcriptServiceMock{download: &service.TranscriptDownload{File: file, Filename: "t-1.csv", ContentType: "text/csv", Size: int64(len(content))}}
	handler := NewTranscriptHandler(svc)

	c, w := newGinContext(http.MethodGet, "/transcripts/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "t-1.csv")
	assert.Equal(t, "ID,Course\n1,MAT101\n", w.Body.String())
}

func TestTranscriptHandlerDownloadExpired(t *testing.T) {
	handler := NewTranscriptHandler(&transcriptServiceMock{})
	c, w := newGinContext(http.MethodGet, "/transcripts/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}

	handler.Download(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTranscriptHandlerDisabled(t *testing.T) {
	handler := NewTranscriptHandler(nil)
	c, w := newGinContext(http.MethodPost, "/students/0xstudent/transcripts", nil)
	withIdentity(c, "0xstudent")

	handler.Generate(c)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

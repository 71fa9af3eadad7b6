package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/internal/service"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
	"github.com/noah-isme/grade-ledger-api/pkg/export"
	"github.com/noah-isme/grade-ledger-api/pkg/response"
)

type transcriptService interface {
	Generate(ctx context.Context, caller, student string, format export.Format) (*models.TranscriptExport, error)
	Open(token string) (*service.TranscriptDownload, error)
}

// TranscriptHandler exports student transcripts.
type TranscriptHandler struct {
	service transcriptService
}

// NewTranscriptHandler constructs the handler. A nil service disables the endpoints.
func NewTranscriptHandler(service transcriptService) *TranscriptHandler {
	return &TranscriptHandler{service: service}
}

// Generate godoc
// @Summary Export a student's transcript
// @Tags Transcripts
// @Produce json
// @Param student path string true "Student identity"
// @Param format query string false "csv or pdf" default(csv)
// @Success 201 {object} response.Envelope
// @Router /students/{student}/transcripts [post]
func (h *TranscriptHandler) Generate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "transcripts not enabled"))
		return
	}
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := export.Format(strings.ToLower(c.DefaultQuery("format", string(export.FormatCSV))))
	result, err := h.service.Generate(c.Request.Context(), caller, c.Param("student"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download a transcript through a signed link
// @Tags Transcripts
// @Produce application/octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /transcripts/{token} [get]
func (h *TranscriptHandler) Download(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "transcripts not enabled"))
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.Size, result.ContentType, result.File, nil)
}

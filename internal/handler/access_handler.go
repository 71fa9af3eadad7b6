package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/pkg/response"
)

type accessService interface {
	Grant(ctx context.Context, caller, viewer string) (*models.AccessGrant, error)
	Revoke(ctx context.Context, caller, viewer string) error
	ListGranted(caller, student string) ([]string, error)
	HasAccess(student, viewer string) bool
}

// AccessHandler lets students share their records with viewers.
type AccessHandler struct {
	access accessService
}

// NewAccessHandler constructs the handler.
func NewAccessHandler(access accessService) *AccessHandler {
	return &AccessHandler{access: access}
}

// Grant godoc
// @Summary Grant a viewer read access to the caller's records
// @Tags Access
// @Accept json
// @Produce json
// @Param payload body models.GrantAccessRequest true "Grant payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /access [post]
func (h *AccessHandler) Grant(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.GrantAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	grant, err := h.access.Grant(c.Request.Context(), caller, req.Viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grant)
}

// Revoke godoc
// @Summary Revoke a viewer's access
// @Tags Access
// @Param viewer path string true "Viewer identity"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /access/{viewer} [delete]
func (h *AccessHandler) Revoke(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.access.Revoke(c.Request.Context(), caller, c.Param("viewer")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary Viewers granted access to a student's records
// @Tags Access
// @Produce json
// @Param student path string true "Student identity"
// @Success 200 {object} response.Envelope
// @Router /students/{student}/access [get]
func (h *AccessHandler) List(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	viewers, err := h.access.ListGranted(caller, c.Param("student"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, viewers, nil)
}

// Check godoc
// @Summary Check whether a viewer may read a student's records
// @Tags Access
// @Produce json
// @Param student path string true "Student identity"
// @Param viewer path string true "Viewer identity"
// @Success 200 {object} response.Envelope
// @Router /students/{student}/access/{viewer} [get]
func (h *AccessHandler) Check(c *gin.Context) {
	student, viewer := c.Param("student"), c.Param("viewer")
	response.JSON(c, http.StatusOK, models.AccessCheck{
		Student: student,
		Viewer:  viewer,
		Allowed: h.access.HasAccess(student, viewer),
	}, nil)
}

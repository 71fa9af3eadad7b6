package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
	"github.com/noah-isme/grade-ledger-api/pkg/response"
)

type roleService interface {
	AssignRole(ctx context.Context, caller, identity string, role models.Role) (*models.RoleAssignment, error)
	RevokeRole(ctx context.Context, caller, identity string) error
	GetRole(identity string) models.Role
	ListRoles() []models.RoleAssignment
}

// RoleHandler manages role assignment endpoints.
type RoleHandler struct {
	roles roleService
}

// NewRoleHandler constructs the handler.
func NewRoleHandler(roles roleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// Assign godoc
// @Summary Assign a ledger role
// @Tags Roles
// @Accept json
// @Produce json
// @Param payload body models.AssignRoleRequest true "Role payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /roles [post]
func (h *RoleHandler) Assign(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	assignment, err := h.roles.AssignRole(c.Request.Context(), caller, req.Identity, models.ParseRole(req.Role))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Revoke godoc
// @Summary Revoke a ledger role
// @Tags Roles
// @Param identity path string true "Identity"
// @Success 204
// @Router /roles/{identity} [delete]
func (h *RoleHandler) Revoke(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.roles.RevokeRole(c.Request.Context(), caller, c.Param("identity")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Get godoc
// @Summary Get the role of an identity
// @Tags Roles
// @Produce json
// @Param identity path string true "Identity"
// @Success 200 {object} response.Envelope
// @Router /roles/{identity} [get]
func (h *RoleHandler) Get(c *gin.Context) {
	identity := c.Param("identity")
	if models.IsNullIdentity(identity) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "identity required"))
		return
	}
	response.JSON(c, http.StatusOK, models.RoleAssignment{Identity: identity, Role: h.roles.GetRole(identity)}, nil)
}

// List godoc
// @Summary List role assignments
// @Tags Roles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.roles.ListRoles(), nil)
}

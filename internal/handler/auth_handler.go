package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/pkg/response"
)

type tokenIssuer interface {
	IssueToken(req models.IssueTokenRequest) (*models.IssuedToken, error)
}

// AuthHandler mints bearer tokens outside production.
type AuthHandler struct {
	issuer tokenIssuer
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(issuer tokenIssuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

// IssueToken godoc
// @Summary Mint a development bearer token
// @Description Only routed when ENV is not production.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.IssueTokenRequest true "Token payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/token [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req models.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	token, err := h.issuer.IssueToken(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, token, nil)
}

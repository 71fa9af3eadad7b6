package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grade-ledger-api/internal/middleware"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
)

// callerIdentity returns the authenticated identity or an unauthorized error.
func callerIdentity(c *gin.Context) (string, error) {
	identity := middleware.Identity(c)
	if identity == "" {
		return "", appErrors.ErrUnauthorized
	}
	return identity, nil
}

func gradeIDParam(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "grade id must be a positive integer")
	}
	return id, nil
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
	"github.com/noah-isme/grade-ledger-api/pkg/response"
)

// RoleLookup resolves an identity's current ledger role.
type RoleLookup interface {
	GetRole(identity string) models.Role
}

// RequireAuthority admits only the ledger authority.
func RequireAuthority(authority string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := Identity(c)
		if identity == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if identity != authority {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "authority only"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRoles admits callers whose current ledger role is in roles. Roles
// are read from the ledger on every request, so a revocation applies at once.
func RequireRoles(lookup RoleLookup, roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		identity := Identity(c)
		if identity == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[lookup.GetRole(identity)]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

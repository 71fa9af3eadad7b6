package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/grade-ledger-api/internal/models"
)

type roleMap map[string]models.Role

func (m roleMap) GetRole(identity string) models.Role {
	if role, ok := m[identity]; ok {
		return role
	}
	return models.RoleNone
}

func TestRequireRoles(t *testing.T) {
	roles := roleMap{"0xteacher": models.RoleTeacher}
	r := newProtectedRouter(RequireRoles(roles, models.RoleTeacher, models.RoleDepartmentHead))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	delete(roles, "0xteacher")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAuthority(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")

	w := httptest.NewRecorder()
	newProtectedRouter(RequireAuthority("0xteacher")).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	newProtectedRouter(RequireAuthority("0xauthority")).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestResponseMeta(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ExtractMeta(c))

	SetCacheHit(c, true)
	SetSequence(c, 12)
	meta := ExtractMeta(c)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, uint64(12), meta["ledger_sequence"])
}

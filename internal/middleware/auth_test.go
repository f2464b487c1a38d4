package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"formcraft_backend/internal/model"
	"formcraft_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubVerifier map[string]*util.Identity

func (s stubVerifier) Verify(token string) (*util.Identity, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return nil, util.ErrUnauthorized
}

var verifier = stubVerifier{
	"user-token":  {UserID: 7, Role: model.RegularUser, ExpiresAt: time.Now().Add(time.Hour)},
	"admin-token": {UserID: 1, Role: model.Admin, ExpiresAt: time.Now().Add(time.Hour)},
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		id := util.GetIdentity(c)
		if id == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, string(id.Role))
	})
	r.GET("/", handlers...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(verifier))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "forged").Code)

	w := do(r, "user-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user", w.Body.String())
}

func TestAuthMiddlewareAcceptsQueryToken(t *testing.T) {
	r := newRouter(AuthMiddleware(verifier))
	req := httptest.NewRequest(http.MethodGet, "/?token=admin-token", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "admin", w.Body.String())
}

func TestTryAuthMiddleware(t *testing.T) {
	r := newRouter(TryAuthMiddleware(verifier))

	assert.Equal(t, "anonymous", do(r, "").Body.String())
	assert.Equal(t, "anonymous", do(r, "forged").Body.String())
	assert.Equal(t, "user", do(r, "user-token").Body.String())
}

func TestRoleMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(verifier), RoleMiddleware(model.Admin))

	assert.Equal(t, http.StatusForbidden, do(r, "user-token").Code)
	assert.Equal(t, http.StatusOK, do(r, "admin-token").Code)
}

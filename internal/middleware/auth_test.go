package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/database"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
)

const secret = "middleware-test-secret"

func sign(t *testing.T, claims Claims, key string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func claimsFor(u models.User, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		UserID: u.ID,
		Role:   u.Role,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   u.ID,
		},
	}
}

func TestParseToken(t *testing.T) {
	u := models.User{ID: "u-1", Role: "staff", Email: "s@kos.test"}

	var got Claims
	require.NoError(t, ParseToken(sign(t, claimsFor(u, time.Minute), secret), secret, &got))
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "staff", got.Role)

	assert.Error(t, ParseToken(sign(t, claimsFor(u, time.Minute), "other"), secret, &Claims{}))
	assert.Error(t, ParseToken(sign(t, claimsFor(u, -time.Minute), secret), secret, &Claims{}))

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claimsFor(u, time.Minute)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.Error(t, ParseToken(unsigned, secret, &Claims{}))
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	r := gin.New()
	auth := AuthMiddleware(db, AuthConfig{JWTSecret: secret})
	r.GET("/any", auth, RequireRoles("admin", "staff"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/admin", auth, RequireRoles("admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r, db
}

func get(r *gin.Engine, path, token string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthMiddlewareAndRoles(t *testing.T) {
	r, db := setupRouter(t)
	admin := models.User{Name: "A", Email: "a@kos.test", Password: "x", Role: "admin", Active: true}
	staff := models.User{Name: "S", Email: "s@kos.test", Password: "x", Role: "staff", Active: true}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&staff).Error)

	adminTok := sign(t, claimsFor(admin, time.Minute), secret)
	staffTok := sign(t, claimsFor(staff, time.Minute), secret)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/any", ""))
	assert.Equal(t, http.StatusUnauthorized, get(r, "/any", "not.a.token"))
	assert.Equal(t, http.StatusNoContent, get(r, "/any", staffTok))
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", adminTok))
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", staffTok))

	// deactivated accounts lose access even with an unexpired token
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", staff.ID).Update("active", false).Error)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/any", staffTok))
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, w.Header().Get("Permissions-Policy"))
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haitrvn/gutcare/pkg/helpers"
)

func authRouter(jwt *helpers.JWTManager) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	var seenEmail string
	r := gin.New()
	r.GET("/protected", JWTAuth(jwt), func(c *gin.Context) {
		seenEmail = c.GetString(CtxUserEmailKey)
		c.Status(http.StatusOK)
	})
	return r, &seenEmail
}

func TestJWTAuthMissingToken(t *testing.T) {
	jwt := helpers.NewJWTManager("test-secret", time.Hour)
	r, _ := authRouter(jwt)

	for name, header := range map[string]string{
		"no header":    "",
		"not bearer":   "Basic abc123",
		"empty bearer": "Bearer ",
		"only scheme":  "Bearer",
	} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}

func TestJWTAuthInvalidToken(t *testing.T) {
	jwt := helpers.NewJWTManager("test-secret", time.Hour)
	r, _ := authRouter(jwt)

	// expired
	expired := helpers.NewJWTManager("test-secret", -time.Minute)
	tok, _, err := expired.GenerateToken("a@x.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// signed under a different key
	forged := helpers.NewJWTManager("other-secret", time.Hour)
	tok, _, err = forged.GenerateToken("a@x.com")
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestJWTAuthValidToken(t *testing.T) {
	jwt := helpers.NewJWTManager("test-secret", time.Hour)
	r, seenEmail := authRouter(jwt)

	tok, _, err := jwt.GenerateToken("a@x.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@x.com", *seenEmail)
}

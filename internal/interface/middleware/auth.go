package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/haitrvn/gutcare/pkg/helpers"
	"github.com/haitrvn/gutcare/pkg/response"
)

// CtxUserEmailKey is where the gate parks the verified identity for handlers.
const CtxUserEmailKey = "userEmail"

// JWTAuth reads the Authorization: Bearer header, verifies the token, and
// injects the user's email into the Gin context. A missing token is 401; a
// token that is present but forged or expired is 403. The gate touches no
// repository; it is a pure boundary check.
func JWTAuth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.AbortError(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseToken(token)
		if err != nil {
			response.AbortError(c, http.StatusForbidden, "invalid access token", nil)
			return
		}
		c.Set(CtxUserEmailKey, claims.Email)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haitrvn/gutcare/internal/container"
	handlers "github.com/haitrvn/gutcare/internal/interface/http"
	"github.com/haitrvn/gutcare/internal/interface/middleware"
)

// AuthModule mounts the public account endpoints.
// POST /api/register, POST /api/login
type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Credential endpoints get tight per-IP limits; registration tighter
	// than login.
	registerLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/register", registerLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)
}

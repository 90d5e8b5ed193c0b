package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haitrvn/gutcare/internal/container"
	handlers "github.com/haitrvn/gutcare/internal/interface/http"
	"github.com/haitrvn/gutcare/internal/interface/middleware"
	"github.com/haitrvn/gutcare/pkg/helpers"
)

// UserModule mounts the protected per-user data endpoints behind the JWT
// gate.
// POST /api/api-key, POST /api/profile, POST /api/symptoms
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.JWTAuth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUser(), nil))
	{
		auth.POST("/api-key", m.Handler.SetAPIKey)
		auth.POST("/profile", m.Handler.UpdateProfile)
		auth.POST("/symptoms", m.Handler.AddSymptom)
	}
}

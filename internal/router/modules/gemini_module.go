package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haitrvn/gutcare/internal/container"
	handlers "github.com/haitrvn/gutcare/internal/interface/http"
	"github.com/haitrvn/gutcare/internal/interface/middleware"
	"github.com/haitrvn/gutcare/pkg/helpers"
)

// GeminiModule mounts the AI proxy endpoints. All are protected, and the
// per-user limit is deliberately low: each call fans out to a paid upstream.
type GeminiModule struct {
	Handler *handlers.GeminiHandler
	JWT     *helpers.JWTManager
}

func NewGeminiModule(h *handlers.GeminiHandler, jwt *helpers.JWTManager) *GeminiModule {
	return &GeminiModule{Handler: h, JWT: jwt}
}

func (m *GeminiModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/gemini")
	auth.Use(middleware.JWTAuth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 20, time.Minute, middleware.KeyByUser(), middleware.AllowPrivateIP()))
	{
		auth.POST("/meal-plan", m.Handler.MealPlan)
		auth.POST("/check-food", m.Handler.CheckFood)
		auth.POST("/analyze-triggers", m.Handler.AnalyzeTriggers)
		auth.POST("/suggest-recipe", m.Handler.SuggestRecipe)
	}
}

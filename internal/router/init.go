package router

import (
	userapp "github.com/haitrvn/gutcare/internal/application"
	"github.com/haitrvn/gutcare/internal/container"
	pginfra "github.com/haitrvn/gutcare/internal/infrastructure/postgres"
	handlers "github.com/haitrvn/gutcare/internal/interface/http"
	"github.com/haitrvn/gutcare/internal/router/modules"
)

func buildService() *userapp.Service {
	pool := container.GetPGPool()
	return userapp.NewService(
		pginfra.NewUserRepository(pool),
		pginfra.NewSymptomRepository(pool),
		container.GetJWT(),
		container.GetKeyCipher(),
		container.GetLogger(),
		container.GetConfig().GeminiModel,
	)
}

// InitModules initializes all application modules and registers them with the
// router registry. Called once during startup.
func InitModules(r *Registry) {
	svc := buildService()
	logger := container.GetLogger()
	jwt := container.GetJWT()

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(svc, logger)))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(svc, logger), jwt))
	r.Add(modules.NewGeminiModule(handlers.NewGeminiHandler(svc, logger), jwt))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}

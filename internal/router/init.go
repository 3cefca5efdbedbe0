package router

import (
	userapp "github.com/apidex-io/apidex/internal/application"
	"github.com/apidex-io/apidex/internal/container"
	pginfra "github.com/apidex-io/apidex/internal/infrastructure/postgres"
	handlers "github.com/apidex-io/apidex/internal/interface/http"
	"github.com/apidex-io/apidex/internal/router/modules"
)

// InitModules initializes all application modules and registers them with
// the router registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	userRepo := pginfra.NewUserRepository(container.GetPGPool())
	apiRepo := pginfra.NewAPIRepository(container.GetPGPool())

	userSvc := userapp.NewService(
		userRepo,
		container.GetJWT(),
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetLogger(),
		container.GetES(),
		cfg.ESUsersIndex,
	)
	apiSvc := userapp.NewAPIService(apiRepo, container.GetLogger())

	authHandler := handlers.NewAuthHandler(userSvc, container.GetRedis(), container.GetLogger(), cfg, container.GetRabbitPub())
	userHandler := handlers.NewUserHandler(userSvc, container.GetLogger())
	apiHandler := handlers.NewAPIHandler(apiSvc, container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler, userHandler, container.GetJWT()))
	r.Add(modules.NewAPIModule(apiHandler, container.GetJWT()))
}

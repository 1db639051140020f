package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"hostelfee_backend/internals/configs"
	accessLog "hostelfee_backend/internals/middlewares/logger"
)

// SetupMiddlewares installs the global middleware chain.
func SetupMiddlewares(app *fiber.App, s configs.Settings) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware())
	app.Use(accessLog.LoggerMiddleware(s.Timezone))
	app.Use(GlobalRateLimiter())
}

// middlewares/cors.go

package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"hostelfee_backend/internals/configs"
)

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"http://127.0.0.1:5500",
}

// CorsMiddleware allows the dashboard origins; CORS_ORIGINS (comma separated) overrides them.
func CorsMiddleware() fiber.Handler {
	origins := strings.Join(defaultOrigins, ", ")
	if v := strings.TrimSpace(configs.GetEnv("CORS_ORIGINS")); v != "" {
		origins = v
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowCredentials: true,
	})
}

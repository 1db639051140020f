package middlewares

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"hostelfee_backend/internals/helpers/logger"
)

// RecoveryMiddleware turns a panic into a 500 and logs it with the request id.
func RecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			logger.Log.WithField("reqid", c.Locals("reqid")).
				Errorf("[PANIC] %s %s: %s", c.Method(), c.OriginalURL(), fmt.Sprint(e))
		},
	})
}

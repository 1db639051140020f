// file: internals/features/finance/due_dates/route/admin_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	ddController "hostelfee_backend/internals/features/finance/due_dates/controller"
)

func AdminTermDueDateRoutes(r fiber.Router, ctl *ddController.TermDueDateController) {
	g := r.Group("/term-due-dates")
	{
		g.Get("/", ctl.List)
		g.Put("/", ctl.Upsert)
	}
}

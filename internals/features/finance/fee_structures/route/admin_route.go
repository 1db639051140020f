// file: internals/features/finance/fee_structures/route/admin_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	fsController "hostelfee_backend/internals/features/finance/fee_structures/controller"
)

func AdminFeeStructureRoutes(r fiber.Router, ctl *fsController.FeeStructureController) {
	g := r.Group("/fee-structures")
	{
		g.Get("/", ctl.List)
		g.Post("/", ctl.Create)
		g.Post("/resolve", ctl.Resolve)
		g.Patch("/:id", ctl.Patch)
		g.Delete("/:id", ctl.Delete)
	}
}

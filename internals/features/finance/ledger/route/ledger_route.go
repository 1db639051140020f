// file: internals/features/finance/ledger/route/ledger_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	ledgerController "hostelfee_backend/internals/features/finance/ledger/controller"
	"hostelfee_backend/internals/middlewares"
)

// AdminLedgerRoutes; base path at the caller: /api/a
func AdminLedgerRoutes(r fiber.Router, ctl *ledgerController.LedgerController) {
	g := r.Group("/ledger")
	{
		g.Get("/students", ctl.ListStudents)
		g.Get("/stats", middlewares.StatsRateLimiter(), ctl.Stats)
	}
}

// StudentLedgerRoutes; guard decides who may read which :id.
func StudentLedgerRoutes(r fiber.Router, ctl *ledgerController.LedgerController, guard fiber.Handler) {
	r.Get("/students/:id/balance", guard, ctl.StudentBalance)
}

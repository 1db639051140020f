// file: internals/features/finance/payments/route/all_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	paymentsController "hostelfee_backend/internals/features/finance/payments/controller"
	"hostelfee_backend/internals/middlewares"
)

// AdminPaymentRoutes mounts the write side; base path at the caller: /api/a
func AdminPaymentRoutes(r fiber.Router, h *paymentsController.PaymentController) {
	payments := r.Group("/payments")
	{
		payments.Post("/", middlewares.PaymentWriteRateLimiter(), h.Create)
		payments.Post("/validate", h.Validate)
	}
}

// StudentPaymentRoutes; guard decides who may read which :id.
func StudentPaymentRoutes(r fiber.Router, h *paymentsController.PaymentController, guard fiber.Handler) {
	r.Get("/students/:id/payments", guard, h.ListByStudent)
}

// file: internals/features/finance/payments/controller/payment_controller.go
package controller

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hostelfee_backend/internals/features/finance/payments/dto"
	"hostelfee_backend/internals/features/finance/payments/model"
	"hostelfee_backend/internals/features/finance/payments/service"
	studentModel "hostelfee_backend/internals/features/students/model"
	studentRepo "hostelfee_backend/internals/features/students/repository"
	helper "hostelfee_backend/internals/helpers"
	"hostelfee_backend/internals/middlewares/auth"
)

type PaymentRecorder interface {
	Check(ctx context.Context, req *dto.CreatePaymentRequest) ([]string, error)
	Record(ctx context.Context, req *dto.CreatePaymentRequest, recordedBy *uuid.UUID) (*model.Payment, error)
}

type PaymentLister interface {
	ListByStudent(ctx context.Context, studentID uuid.UUID, academicYear string) ([]model.Payment, error)
}

type StudentFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*studentModel.Student, error)
}

type PaymentController struct {
	Payments PaymentRecorder
	Lister   PaymentLister
	Students StudentFinder
	Log      logrus.FieldLogger
}

func NewPaymentController(payments PaymentRecorder, lister PaymentLister, students StudentFinder, log logrus.FieldLogger) *PaymentController {
	return &PaymentController{Payments: payments, Lister: lister, Students: students, Log: log}
}

/* =======================================================================
   Handlers
======================================================================= */

// POST /payments
func (h *PaymentController) Create(c *fiber.Ctx) error {
	var req dto.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}

	p, err := h.Payments.Record(c.UserContext(), &req, auth.UserID(c))
	if err != nil {
		var invalid *service.ErrInvalidPayment
		if errors.As(err, &invalid) {
			return helper.JsonMessagesError(c, invalid.Messages)
		}
		h.Log.WithError(err).Error("[PAYMENT] record failed")
		return helper.JsonError(c, fiber.StatusInternalServerError, "")
	}
	return helper.JsonCreated(c, "payment recorded", dto.FromModel(p))
}

// POST /payments/validate
func (h *PaymentController) Validate(c *fiber.Ctx) error {
	var req dto.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}

	msgs, err := h.Payments.Check(c.UserContext(), &req)
	if err != nil {
		h.Log.WithError(err).Error("[PAYMENT] validation lookup failed")
		return helper.JsonError(c, fiber.StatusInternalServerError, "")
	}
	if msgs == nil {
		msgs = []string{}
	}
	return helper.JsonOK(c, "ok", dto.ValidationResponse{Valid: len(msgs) == 0, Messages: msgs})
}

// GET /students/:id/payments?academic_year=
func (h *PaymentController) ListByStudent(c *fiber.Ctx) error {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "student id invalid")
	}

	academicYear := strings.TrimSpace(c.Query("academic_year"))
	if academicYear == "" {
		st, err := h.Students.FindByID(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, studentRepo.ErrStudentNotFound) {
				return helper.JsonError(c, fiber.StatusNotFound, "Student not found")
			}
			h.Log.WithError(err).Error("[PAYMENT] student lookup failed")
			return helper.JsonError(c, fiber.StatusInternalServerError, "")
		}
		academicYear = strings.TrimSpace(st.StudentAcademicYear)
	}

	rows, err := h.Lister.ListByStudent(c.UserContext(), id, academicYear)
	if err != nil {
		h.Log.WithError(err).Error("[PAYMENT] list failed")
		return helper.JsonError(c, fiber.StatusInternalServerError, "")
	}
	return helper.JsonOK(c, "ok", dto.FromModels(rows))
}

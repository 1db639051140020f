// file: internals/features/finance/ledger/controller/ledger_controller.go
package controller

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hostelfee_backend/internals/features/finance/ledger/dto"
	"hostelfee_backend/internals/features/finance/ledger/service"
	paymentModel "hostelfee_backend/internals/features/finance/payments/model"
	studentModel "hostelfee_backend/internals/features/students/model"
	studentRepo "hostelfee_backend/internals/features/students/repository"
	helper "hostelfee_backend/internals/helpers"
	"hostelfee_backend/internals/helpers/dbtime"
)

type StudentStore interface {
	List(ctx context.Context, f studentRepo.Filter, p helper.Params) ([]studentModel.Student, int64, error)
	ListForStats(ctx context.Context, f studentRepo.Filter, limit int) ([]studentModel.Student, error)
	FindByID(ctx context.Context, id uuid.UUID) (*studentModel.Student, error)
}

type PaymentStore interface {
	ListByStudent(ctx context.Context, studentID uuid.UUID, academicYear string) ([]paymentModel.Payment, error)
	ListCohort(ctx context.Context, academicYear string, studentIDs []uuid.UUID, limit int) ([]paymentModel.Payment, error)
}

type Recomputer interface {
	Run(ctx context.Context, req service.Request) (*service.Computation, error)
}

type LedgerController struct {
	Students    StudentStore
	Payments    PaymentStore
	Aggregator  service.Computer
	Coordinator Recomputer
	Log         logrus.FieldLogger

	Location     *time.Location
	StudentLimit int
	PaymentLimit int
	Now          func() time.Time
}

func NewLedgerController(students StudentStore, payments PaymentStore, agg service.Computer, coord Recomputer, log logrus.FieldLogger) *LedgerController {
	return &LedgerController{
		Students:    students,
		Payments:    payments,
		Aggregator:  agg,
		Coordinator: coord,
		Log:         log,
		Location:    time.UTC,
		Now:         time.Now,
	}
}

func (ctl *LedgerController) asOf(c *fiber.Ctx) (time.Time, error) {
	return dbtime.ParseAsOf(c, ctl.Location, ctl.Now())
}

func parseFilter(c *fiber.Ctx) (studentRepo.Filter, error) {
	f := studentRepo.Filter{
		Search:       c.Query("search"),
		AcademicYear: c.Query("academic_year"),
		Category:     c.Query("category"),
		Course:       c.Query("course"),
		ActiveOnly:   c.QueryBool("active_only", false),
	}
	if raw := strings.TrimSpace(c.Query("hostel_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, errors.New("hostel_id invalid")
		}
		f.HostelID = &id
	}
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, errors.New("year must be a positive integer")
		}
		f.Year = n
	}
	return f, nil
}

func studentIDs(rows []studentModel.Student) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].StudentID)
	}
	return ids
}

func (ctl *LedgerController) serverError(c *fiber.Ctx, err error, msg string) error {
	ctl.Log.WithError(err).Error(msg)
	return helper.JsonError(c, fiber.StatusInternalServerError, "")
}

/* =======================================================================
   GET /students/:id/balance?academic_year=&as_of=
======================================================================= */

func (ctl *LedgerController) StudentBalance(c *fiber.Ctx) error {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "student id invalid")
	}
	asOf, err := ctl.asOf(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	st, err := ctl.Students.FindByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, studentRepo.ErrStudentNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Student not found")
		}
		return ctl.serverError(c, err, "[LEDGER] student lookup failed")
	}
	// Another academic year is computed from the structure alone; this year's
	// overrides and late fees stay on the loaded row.
	view := st.InAcademicYear(c.Query("academic_year"))

	payments, err := ctl.Payments.ListByStudent(c.UserContext(), view.StudentID, view.StudentAcademicYear)
	if err != nil {
		return ctl.serverError(c, err, "[LEDGER] payment lookup failed")
	}
	res, err := ctl.Aggregator.Aggregate(c.UserContext(), []studentModel.Student{view}, payments, asOf)
	if err != nil {
		return ctl.serverError(c, err, "[LEDGER] balance failed")
	}

	return helper.JsonOK(c, "ok", dto.StudentBalanceResponse{
		AsOf:                  asOf.Format(dbtime.DateLayout),
		StudentLedgerResponse: dto.FromPosition(&res.PerStudent[0]),
	})
}

/* =======================================================================
   GET /ledger/students (paginated table)
======================================================================= */

func (ctl *LedgerController) ListStudents(c *fiber.Ctx) error {
	f, err := parseFilter(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	asOf, err := ctl.asOf(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	p := helper.ParseFiber(c, "name", "asc", helper.AdminOpts)

	rows, total, err := ctl.Students.List(c.UserContext(), f, p)
	if err != nil {
		return ctl.serverError(c, err, "[LEDGER] student list failed")
	}

	var payments []paymentModel.Payment
	if len(rows) > 0 {
		payments, err = ctl.Payments.ListCohort(c.UserContext(), f.AcademicYear, studentIDs(rows), ctl.PaymentLimit)
		if err != nil {
			return ctl.serverError(c, err, "[LEDGER] payment list failed")
		}
	}

	res, err := ctl.Aggregator.Aggregate(c.UserContext(), rows, payments, asOf)
	if err != nil {
		return ctl.serverError(c, err, "[LEDGER] aggregate failed")
	}
	return helper.JsonList(c, dto.FromPositions(res.PerStudent), helper.BuildMeta(total, p))
}

/* =======================================================================
   GET /ledger/stats (cohort KPIs)
======================================================================= */

func (ctl *LedgerController) Stats(c *fiber.Ctx) error {
	f, err := parseFilter(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	asOf, err := ctl.asOf(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	// A superseded run is retried once with freshly read inputs.
	var resp dto.StatsResponse
	for attempt := 0; attempt < 2; attempt++ {
		resp, err = ctl.stats(c.UserContext(), f, asOf)
		if !errors.Is(err, service.ErrStaleComputation) {
			break
		}
	}
	switch {
	case errors.Is(err, service.ErrStaleComputation):
		return helper.JsonError(c, fiber.StatusConflict, "figures changed while computing; retry")
	case err != nil:
		return ctl.serverError(c, err, "[LEDGER] stats failed")
	}
	return helper.JsonOK(c, "ok", resp)
}

func (ctl *LedgerController) stats(ctx context.Context, f studentRepo.Filter, asOf time.Time) (dto.StatsResponse, error) {
	students, err := ctl.Students.ListForStats(ctx, f, ctl.StudentLimit)
	if err != nil {
		return dto.StatsResponse{}, err
	}
	var payments []paymentModel.Payment
	if len(students) > 0 {
		payments, err = ctl.Payments.ListCohort(ctx, f.AcademicYear, studentIDs(students), ctl.PaymentLimit)
		if err != nil {
			return dto.StatsResponse{}, err
		}
	}

	comp, err := ctl.Coordinator.Run(ctx, service.Request{
		FilterKey: f.Key() + "|as_of=" + asOf.Format(dbtime.DateLayout),
		Students:  students,
		Payments:  payments,
		AsOf:      asOf,
	})
	if err != nil {
		return dto.StatsResponse{}, err
	}

	resp := dto.FromComputation(comp)
	resp.StudentLimitReached = ctl.StudentLimit > 0 && len(students) >= ctl.StudentLimit
	resp.PaymentLimitReached = ctl.PaymentLimit > 0 && len(payments) >= ctl.PaymentLimit
	if resp.StudentLimitReached || resp.PaymentLimitReached {
		ctl.Log.WithFields(logrus.Fields{
			"filter":   f.Key(),
			"students": len(students),
			"payments": len(payments),
		}).Warn("[LEDGER] stats input capped")
	}
	return resp, nil
}

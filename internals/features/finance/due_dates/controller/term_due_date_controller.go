// file: internals/features/finance/due_dates/controller/term_due_date_controller.go
package controller

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"hostelfee_backend/internals/features/finance/due_dates/dto"
	"hostelfee_backend/internals/features/finance/due_dates/model"
	"hostelfee_backend/internals/features/finance/due_dates/repository"
	helper "hostelfee_backend/internals/helpers"
)

type TermDueDateStore interface {
	List(ctx context.Context, f repository.ListFilter) ([]model.TermDueDate, error)
	Upsert(ctx context.Context, row *model.TermDueDate) error
}

type DueDateCache interface {
	Invalidate(course, academicYear string, yearOfStudy int) int
}

type TermDueDateController struct {
	Store     TermDueDateStore
	Cache     DueDateCache
	Validator *validator.Validate
	Log       logrus.FieldLogger

	// Changed runs after every successful write.
	Changed func(academicYear string)
}

func NewTermDueDateController(store TermDueDateStore, c DueDateCache, log logrus.FieldLogger) *TermDueDateController {
	return &TermDueDateController{
		Store:     store,
		Cache:     c,
		Validator: validator.New(),
		Log:       log,
	}
}

// ========== Upsert ==========
func (ctl *TermDueDateController) Upsert(c *fiber.Ctx) error {
	var req dto.UpsertTermDueDateRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrors(err))
	}
	row, problems := req.ToModel()
	if problems != nil {
		return helper.JsonValidationError(c, problems)
	}

	if err := ctl.Store.Upsert(c.UserContext(), row); err != nil {
		ctl.Log.WithError(err).Error("[DUE-DATES] upsert failed")
		return helper.JsonError(c, fiber.StatusInternalServerError, "")
	}

	n := ctl.Cache.Invalidate(row.TermDueDateCourse, row.TermDueDateAcademicYear, row.TermDueDateYearOfStudy)
	if ctl.Changed != nil {
		ctl.Changed(row.TermDueDateAcademicYear)
	}
	ctl.Log.WithFields(logrus.Fields{
		"course":        row.TermDueDateCourse,
		"academic_year": row.TermDueDateAcademicYear,
		"year":          row.TermDueDateYearOfStudy,
		"evicted":       n,
	}).Info("[DUE-DATES] configured")

	return helper.JsonOK(c, "due dates saved", dto.FromModel(row))
}

// ========== List ==========
func (ctl *TermDueDateController) List(c *fiber.Ctx) error {
	f := repository.ListFilter{
		Course:       c.Query("course"),
		AcademicYear: c.Query("academic_year"),
	}
	if y := strings.TrimSpace(c.Query("year")); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil || n < 1 {
			return helper.JsonError(c, fiber.StatusBadRequest, "year must be a positive integer")
		}
		f.Year = n
	}

	rows, err := ctl.Store.List(c.UserContext(), f)
	if err != nil {
		ctl.Log.WithError(err).Error("[DUE-DATES] list failed")
		return helper.JsonError(c, fiber.StatusInternalServerError, "")
	}
	return helper.JsonOK(c, "ok", dto.FromModels(rows))
}

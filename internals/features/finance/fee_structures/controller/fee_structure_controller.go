// file: internals/features/finance/fee_structures/controller/fee_structure_controller.go
package controller

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hostelfee_backend/internals/features/finance/fee_structures/dto"
	"hostelfee_backend/internals/features/finance/fee_structures/model"
	"hostelfee_backend/internals/features/finance/fee_structures/repository"
	"hostelfee_backend/internals/features/finance/fee_structures/service"
	ledgerService "hostelfee_backend/internals/features/finance/ledger/service"
	studentModel "hostelfee_backend/internals/features/students/model"
	studentRepo "hostelfee_backend/internals/features/students/repository"
	helper "hostelfee_backend/internals/helpers"
)

type FeeStructureStore interface {
	List(ctx context.Context, f repository.ListFilter) ([]model.FeeStructure, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.FeeStructure, error)
	Create(ctx context.Context, fs *model.FeeStructure) error
	Save(ctx context.Context, fs *model.FeeStructure) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type CatalogCache interface {
	Load(ctx context.Context, academicYear string) (*service.Snapshot, error)
	Invalidate(academicYear string)
}

type StudentFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*studentModel.Student, error)
}

type FeeStructureController struct {
	Store     FeeStructureStore
	Catalog   CatalogCache
	Students  StudentFinder
	Validator *validator.Validate
	Log       logrus.FieldLogger

	// Changed runs after every successful write.
	Changed func(academicYear string)
}

func NewFeeStructureController(store FeeStructureStore, catalog CatalogCache, students StudentFinder, log logrus.FieldLogger) *FeeStructureController {
	return &FeeStructureController{
		Store:     store,
		Catalog:   catalog,
		Students:  students,
		Validator: validator.New(),
		Log:       log,
	}
}

func (ctl *FeeStructureController) afterWrite(academicYear string) {
	ctl.Catalog.Invalidate(academicYear)
	if ctl.Changed != nil {
		ctl.Changed(academicYear)
	}
}

func (ctl *FeeStructureController) storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrFeeStructureNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Fee structure not found")
	case errors.Is(err, repository.ErrDuplicateDiscriminators):
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	ctl.Log.WithError(err).Error("[FEE-STRUCTURE] store error")
	return helper.JsonError(c, fiber.StatusInternalServerError, "")
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Params("id")))
}

// ========== Create ==========
func (ctl *FeeStructureController) Create(c *fiber.Ctx) error {
	var req dto.CreateFeeStructureRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrors(err))
	}

	fs := req.ToModel()
	if problems := dto.AmountProblems(fs); problems != nil {
		return helper.JsonValidationError(c, problems)
	}
	if err := ctl.Store.Create(c.UserContext(), fs); err != nil {
		return ctl.storeError(c, err)
	}
	ctl.afterWrite(fs.FeeStructureAcademicYear)
	return helper.JsonCreated(c, "fee structure created", dto.FromModel(fs))
}

// ========== Patch ==========
func (ctl *FeeStructureController) Patch(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "fee_structure_id invalid")
	}
	fs, err := ctl.Store.FindByID(c.UserContext(), id)
	if err != nil {
		return ctl.storeError(c, err)
	}

	var req dto.PatchFeeStructureRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	req.ApplyTo(fs)
	if problems := dto.AmountProblems(fs); problems != nil {
		return helper.JsonValidationError(c, problems)
	}
	if err := ctl.Store.Save(c.UserContext(), fs); err != nil {
		return ctl.storeError(c, err)
	}
	ctl.afterWrite(fs.FeeStructureAcademicYear)
	return helper.JsonOK(c, "fee structure updated", dto.FromModel(fs))
}

// ========== List ==========
func (ctl *FeeStructureController) List(c *fiber.Ctx) error {
	f := repository.ListFilter{
		AcademicYear: c.Query("academic_year"),
		Course:       c.Query("course"),
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
		return ctl.storeError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModels(rows))
}

// ========== Delete (soft delete) ==========
func (ctl *FeeStructureController) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "fee_structure_id invalid")
	}
	fs, err := ctl.Store.FindByID(c.UserContext(), id)
	if err != nil {
		return ctl.storeError(c, err)
	}
	if err := ctl.Store.SoftDelete(c.UserContext(), id); err != nil {
		return ctl.storeError(c, err)
	}
	ctl.afterWrite(fs.FeeStructureAcademicYear)
	return helper.JsonDeleted(c, "fee structure deleted", fiber.Map{"fee_structure_id": id})
}

// ========== Resolve (dry run) ==========

// Resolve shows which structure a student would be billed under and why.
func (ctl *FeeStructureController) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrors(err))
	}

	st, err := ctl.studentFor(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, studentRepo.ErrStudentNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Student not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	snap, err := ctl.Catalog.Load(c.UserContext(), st.StudentAcademicYear)
	if err != nil {
		ctl.Log.WithError(err).Error("[FEE-STRUCTURE] catalog load failed")
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "fee structure catalog unavailable")
	}

	cands := snap.Resolver.Candidates(st, snap.Structures)
	resp := dto.ResolveResponse{
		NormalizedCourse: snap.Resolver.NormalizeCourse(st.StudentCourse),
		Candidates:       make([]dto.CandidateResponse, 0, len(cands)),
	}
	for _, cd := range cands {
		resp.Candidates = append(resp.Candidates, dto.CandidateResponse{
			FeeStructureID: cd.Structure.FeeStructureID,
			Score:          cd.Score,
			CatalogIndex:   cd.Index,
		})
	}
	if fs, ok := snap.Resolve(st); ok {
		out := dto.FromModel(fs)
		resp.Configured = true
		resp.FeeStructure = &out
		resp.Ambiguous = len(cands) > 1 && cands[0].Score == cands[1].Score
		for i := 0; i < 3; i++ {
			resp.RequiredPerTerm = append(resp.RequiredPerTerm, ledgerService.RequiredForTerm(st, fs, i))
		}
	}
	return helper.JsonOK(c, "ok", resp)
}

func (ctl *FeeStructureController) studentFor(ctx context.Context, req *dto.ResolveRequest) (*studentModel.Student, error) {
	if req.StudentID != nil {
		return ctl.Students.FindByID(ctx, *req.StudentID)
	}
	return &studentModel.Student{
		StudentCourse:         req.Course,
		StudentYear:           req.Year,
		StudentAcademicYear:   strings.TrimSpace(req.AcademicYear),
		StudentBranch:         req.Branch,
		StudentHostelID:       req.HostelID,
		StudentCategory:       req.Category,
		StudentHostelCategory: req.HostelCategory,
	}, nil
}

// file: internals/features/finance/fee_structures/repository/fee_structure_repository.go
package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"hostelfee_backend/internals/features/finance/fee_structures/model"
)

var (
	ErrFeeStructureNotFound = errors.New("fee structure not found")
	// ErrDuplicateDiscriminators is returned when another live structure already
	// covers the same (course, academic year, year, branch, hostel, category).
	ErrDuplicateDiscriminators = errors.New("a fee structure with the same discriminators already exists")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

type ListFilter struct {
	AcademicYear string
	Course       string
	Year         int
}

type FeeStructureRepository struct {
	DB *gorm.DB
}

func NewFeeStructureRepository(db *gorm.DB) *FeeStructureRepository {
	return &FeeStructureRepository{DB: db}
}

// ListByAcademicYear returns the whole catalog for a year in insertion order, which
// is the tie-break order of the resolver.
func (r *FeeStructureRepository) ListByAcademicYear(ctx context.Context, academicYear string) ([]model.FeeStructure, error) {
	var rows []model.FeeStructure
	err := r.DB.WithContext(ctx).
		Where("fee_structure_academic_year = ?", strings.TrimSpace(academicYear)).
		Order("fee_structure_created_at ASC, fee_structure_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list fee structures")
	}
	return rows, nil
}

func (r *FeeStructureRepository) ListCourses(ctx context.Context) ([]model.Course, error) {
	var rows []model.Course
	if err := r.DB.WithContext(ctx).Order("course_name ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	return rows, nil
}

func (r *FeeStructureRepository) ListCategories(ctx context.Context) ([]model.FeeCategory, error) {
	var rows []model.FeeCategory
	if err := r.DB.WithContext(ctx).Order("fee_category_name ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list fee categories")
	}
	return rows, nil
}

func (r *FeeStructureRepository) List(ctx context.Context, f ListFilter) ([]model.FeeStructure, error) {
	q := r.DB.WithContext(ctx).Model(&model.FeeStructure{})
	if ay := strings.TrimSpace(f.AcademicYear); ay != "" {
		q = q.Where("fee_structure_academic_year = ?", ay)
	}
	if c := strings.TrimSpace(f.Course); c != "" {
		q = q.Where("LOWER(fee_structure_course) = LOWER(?)", c)
	}
	if f.Year > 0 {
		q = q.Where("fee_structure_year = ?", f.Year)
	}

	var rows []model.FeeStructure
	if err := q.Order("fee_structure_course ASC, fee_structure_year ASC, fee_structure_created_at ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list fee structures")
	}
	return rows, nil
}

func (r *FeeStructureRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FeeStructure, error) {
	var fs model.FeeStructure
	if err := r.DB.WithContext(ctx).First(&fs, "fee_structure_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeeStructureNotFound
		}
		return nil, errors.Wrap(err, "find fee structure")
	}
	return &fs, nil
}

func (r *FeeStructureRepository) Create(ctx context.Context, fs *model.FeeStructure) error {
	if err := r.DB.WithContext(ctx).Create(fs).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDiscriminators
		}
		return errors.Wrap(err, "create fee structure")
	}
	return nil
}

func (r *FeeStructureRepository) Save(ctx context.Context, fs *model.FeeStructure) error {
	if err := r.DB.WithContext(ctx).Save(fs).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDiscriminators
		}
		return errors.Wrap(err, "update fee structure")
	}
	return nil
}

// SoftDelete returns ErrFeeStructureNotFound when nothing alive was deleted.
func (r *FeeStructureRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tx := r.DB.WithContext(ctx).Where("fee_structure_id = ?", id).Delete(&model.FeeStructure{})
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "delete fee structure")
	}
	if tx.RowsAffected == 0 {
		return ErrFeeStructureNotFound
	}
	return nil
}

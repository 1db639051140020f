// file: internals/features/finance/due_dates/repository/term_due_date_repository.go
package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostelfee_backend/internals/features/finance/due_dates/model"
	helper "hostelfee_backend/internals/helpers"
)

type TermDueDateRepository struct {
	DB *gorm.DB
}

func NewTermDueDateRepository(db *gorm.DB) *TermDueDateRepository {
	return &TermDueDateRepository{DB: db}
}

// foldedCourse folds the stored course the way helper.FoldName folds the argument
// (NFKC is applied on write).
const foldedCourse = `LOWER(REGEXP_REPLACE(BTRIM(term_due_date_course), '\s+', ' ', 'g'))`

// Find returns (nil, nil) when the key is not configured.
func (r *TermDueDateRepository) Find(ctx context.Context, course, academicYear string, yearOfStudy int) (*model.TermDueDate, error) {
	var row model.TermDueDate
	err := r.DB.WithContext(ctx).
		Where(foldedCourse+" = ? AND term_due_date_academic_year = ? AND term_due_date_year_of_study = ?",
			helper.FoldName(course), strings.TrimSpace(academicYear), yearOfStudy).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find term due dates")
	}
	return &row, nil
}

type ListFilter struct {
	Course       string
	AcademicYear string
	Year         int
}

func (r *TermDueDateRepository) List(ctx context.Context, f ListFilter) ([]model.TermDueDate, error) {
	q := r.DB.WithContext(ctx).Model(&model.TermDueDate{})
	if c := helper.FoldName(f.Course); c != "" {
		q = q.Where(foldedCourse+" = ?", c)
	}
	if ay := strings.TrimSpace(f.AcademicYear); ay != "" {
		q = q.Where("term_due_date_academic_year = ?", ay)
	}
	if f.Year > 0 {
		q = q.Where("term_due_date_year_of_study = ?", f.Year)
	}

	var rows []model.TermDueDate
	if err := q.Order("term_due_date_academic_year DESC, term_due_date_course ASC, term_due_date_year_of_study ASC").
		Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list term due dates")
	}
	return rows, nil
}

// Upsert writes the configuration for its (course, academic year, year) key.
func (r *TermDueDateRepository) Upsert(ctx context.Context, row *model.TermDueDate) error {
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "term_due_date_course"},
			{Name: "term_due_date_academic_year"},
			{Name: "term_due_date_year_of_study"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"term_due_date_term1",
			"term_due_date_term2",
			"term_due_date_term3",
			"term_due_date_term1_late_fee",
			"term_due_date_term2_late_fee",
			"term_due_date_term3_late_fee",
			"term_due_date_updated_at",
		}),
	}).Create(row).Error
	if err != nil {
		return errors.Wrap(err, "upsert term due dates")
	}
	return nil
}

// file: internals/features/students/repository/student_repository.go
package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"hostelfee_backend/internals/features/students/model"
	helper "hostelfee_backend/internals/helpers"
)

var ErrStudentNotFound = errors.New("student not found")

// Filter is shared by the paginated table query and the statistics query.
type Filter struct {
	Search       string
	HostelID     *uuid.UUID
	AcademicYear string
	Category     string
	Course       string
	Year         int
	ActiveOnly   bool
}

// Key identifies the filter for recompute memoization.
func (f Filter) Key() string {
	var b strings.Builder
	b.WriteString("q=" + strings.ToLower(strings.TrimSpace(f.Search)))
	if f.HostelID != nil {
		b.WriteString("|hostel=" + f.HostelID.String())
	}
	b.WriteString("|ay=" + strings.TrimSpace(f.AcademicYear))
	b.WriteString("|cat=" + strings.ToLower(strings.TrimSpace(f.Category)))
	b.WriteString("|course=" + strings.ToLower(strings.TrimSpace(f.Course)))
	if f.Year > 0 {
		b.WriteString("|year=" + strconv.Itoa(f.Year))
	}
	if f.ActiveOnly {
		b.WriteString("|active")
	}
	return b.String()
}

var studentSorts = map[string]string{
	"name":        "student_name",
	"roll_number": "student_roll_number",
	"course":      "student_course",
	"year":        "student_year",
	"created_at":  "student_created_at",
}

type StudentRepository struct {
	DB *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: db}
}

func (r *StudentRepository) scoped(ctx context.Context, f Filter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&model.Student{})
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("student_name ILIKE ? OR student_roll_number ILIKE ?", like, like)
	}
	if f.HostelID != nil {
		q = q.Where("student_hostel_id = ?", *f.HostelID)
	}
	if ay := strings.TrimSpace(f.AcademicYear); ay != "" {
		q = q.Where("student_academic_year = ?", ay)
	}
	if cat := strings.TrimSpace(f.Category); cat != "" {
		q = q.Where("(LOWER(student_category) = LOWER(?) OR LOWER(student_hostel_category) = LOWER(?))", cat, cat)
	}
	if course := strings.TrimSpace(f.Course); course != "" {
		q = q.Where("LOWER(student_course) = LOWER(?)", course)
	}
	if f.Year > 0 {
		q = q.Where("student_year = ?", f.Year)
	}
	if f.ActiveOnly {
		q = q.Where("student_status = ?", model.StudentStatusActive)
	}
	return q
}

// List is the paginated table query.
func (r *StudentRepository) List(ctx context.Context, f Filter, p helper.Params) ([]model.Student, int64, error) {
	var total int64
	if err := r.scoped(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count students")
	}

	var rows []model.Student
	q := r.scoped(ctx, f)
	if order := p.SafeOrderClause(studentSorts, "name"); order != "" {
		q = q.Order(order)
	}
	if err := q.Order("student_id ASC").Limit(p.Limit()).Offset(p.Offset()).Find(&rows).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list students")
	}
	return rows, total, nil
}

// ListForStats returns up to limit students for the aggregator, in a stable order.
func (r *StudentRepository) ListForStats(ctx context.Context, f Filter, limit int) ([]model.Student, error) {
	var rows []model.Student
	q := r.scoped(ctx, f).Order("student_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list students for stats")
	}
	return rows, nil
}

func (r *StudentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	var st model.Student
	if err := r.DB.WithContext(ctx).First(&st, "student_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, errors.Wrap(err, "find student")
	}
	return &st, nil
}

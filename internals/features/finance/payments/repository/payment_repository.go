// file: internals/features/finance/payments/repository/payment_repository.go
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"hostelfee_backend/internals/features/finance/payments/model"
)

const DefaultCohortLimit = 10000

type PaymentRepository struct {
	DB *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	if err := r.DB.WithContext(ctx).Create(p).Error; err != nil {
		return errors.Wrap(err, "create payment")
	}
	return nil
}

// ListByStudent returns every payment of one student for one academic year.
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID uuid.UUID, academicYear string) ([]model.Payment, error) {
	var rows []model.Payment
	err := r.DB.WithContext(ctx).
		Where("payment_student_id = ? AND payment_academic_year = ?", studentID, strings.TrimSpace(academicYear)).
		Order("payment_date ASC, payment_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list student payments")
	}
	return rows, nil
}

// ListCohort returns up to limit payments of an academic year, optionally restricted
// to a student set. An empty academicYear means all years.
func (r *PaymentRepository) ListCohort(ctx context.Context, academicYear string, studentIDs []uuid.UUID, limit int) ([]model.Payment, error) {
	if limit <= 0 {
		limit = DefaultCohortLimit
	}
	q := r.DB.WithContext(ctx).Model(&model.Payment{})
	if ay := strings.TrimSpace(academicYear); ay != "" {
		q = q.Where("payment_academic_year = ?", ay)
	}
	if len(studentIDs) > 0 {
		q = q.Where("payment_student_id IN ?", studentIDs)
	}

	var rows []model.Payment
	if err := q.Order("payment_date ASC, payment_id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list cohort payments")
	}
	return rows, nil
}

// ExistsSince reports whether the student already has a payment of this type
// created at or after since.
func (r *PaymentRepository) ExistsSince(ctx context.Context, studentID uuid.UUID, paymentType model.PaymentType, since time.Time) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Payment{}).
		Where("payment_student_id = ? AND payment_type = ? AND payment_created_at >= ?", studentID, paymentType, since).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "check recent payments")
	}
	return n > 0, nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"hostelfee_backend/internals/features/finance/payments/dto"
	"hostelfee_backend/internals/features/finance/payments/model"
	studentModel "hostelfee_backend/internals/features/students/model"
	studentRepo "hostelfee_backend/internals/features/students/repository"
)

const DefaultDuplicateWindow = 2 * time.Minute

type StudentFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*studentModel.Student, error)
}

type RecentPayments interface {
	ExistsSince(ctx context.Context, studentID uuid.UUID, paymentType model.PaymentType, since time.Time) (bool, error)
}

// PaymentValidator runs the pre-submission checks. Problems come back as
// human-readable messages; the error return is reserved for lookups that failed.
type PaymentValidator struct {
	validate *validator.Validate
	students StudentFinder
	recent   RecentPayments
	window   time.Duration
	now      func() time.Time
}

func NewPaymentValidator(students StudentFinder, recent RecentPayments, window time.Duration) *PaymentValidator {
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	return &PaymentValidator{
		validate: validator.New(),
		students: students,
		recent:   recent,
		window:   window,
		now:      time.Now,
	}
}

// WithClock swaps the time source; used by tests.
func (v *PaymentValidator) WithClock(now func() time.Time) *PaymentValidator {
	v.now = now
	return v
}

// Validate normalizes req and returns every problem found. The student is returned
// when it could be loaded so callers can default the academic year from it.
func (v *PaymentValidator) Validate(ctx context.Context, req *dto.CreatePaymentRequest) ([]string, *studentModel.Student, error) {
	req.Normalize()

	var msgs []string
	if err := v.validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return nil, nil, errors.Wrap(err, "validate payment")
		}
		for _, fe := range ve {
			msgs = append(msgs, fieldMessage(fe))
		}
	}

	if req.PaymentAmount == nil || !req.PaymentAmount.IsPositive() {
		msgs = append(msgs, "Please enter a valid amount greater than zero")
	}

	switch req.PaymentMethod {
	case "":
		msgs = append(msgs, "Please select a payment method")
	case model.PaymentMethodCash:
	case model.PaymentMethodOnline:
		if req.PaymentUTRNumber == nil {
			msgs = append(msgs, "UTR number is required for online payments")
		}
	default:
		msgs = append(msgs, "Payment method must be cash or online")
	}

	switch {
	case model.PaymentType(req.PaymentType) == model.PaymentTypeHostelFee && req.PaymentTerm == nil:
		msgs = append(msgs, "Please select a term for hostel fee payments")
	case model.PaymentType(req.PaymentType) != model.PaymentTypeHostelFee && req.PaymentTerm != nil && req.PaymentType != "":
		msgs = append(msgs, "Term only applies to hostel fee payments")
	}

	if req.PaymentStudentID == uuid.Nil {
		return msgs, nil, nil
	}

	st, err := v.students.FindByID(ctx, req.PaymentStudentID)
	if err != nil {
		if errors.Is(err, studentRepo.ErrStudentNotFound) {
			return append(msgs, "Student not found"), nil, nil
		}
		return nil, nil, err
	}
	if !st.IsActive() {
		msgs = append(msgs, "Cannot record a payment for an inactive student")
	}

	if req.PaymentType != "" {
		dup, err := v.recent.ExistsSince(ctx, st.StudentID, model.PaymentType(req.PaymentType), v.now().Add(-v.window))
		if err != nil {
			return nil, nil, err
		}
		if dup {
			msgs = append(msgs, fmt.Sprintf("A %s payment for this student was already recorded in the last %s; wait before submitting again",
				strings.ReplaceAll(req.PaymentType, "_", " "), humanWindow(v.window)))
		}
	}
	return msgs, st, nil
}

func humanWindow(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}

func fieldMessage(fe validator.FieldError) string {
	field := map[string]string{
		"PaymentStudentID":    "student",
		"PaymentAcademicYear": "academic year",
		"PaymentType":         "payment type",
		"PaymentTerm":         "term",
		"PaymentUTRNumber":    "UTR number",
		"PaymentDate":         "payment date",
	}[fe.Field()]
	if field == "" {
		field = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Please provide the %s", field)
	case "oneof":
		return fmt.Sprintf("The %s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("The %s must be at most %s characters", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("The %s must be a date in YYYY-MM-DD format", field)
	}
	return fmt.Sprintf("The %s is invalid", field)
}

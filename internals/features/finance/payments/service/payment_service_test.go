package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hostelfee_backend/internals/features/finance/payments/dto"
	"hostelfee_backend/internals/features/finance/payments/model"
	studentModel "hostelfee_backend/internals/features/students/model"
	studentRepo "hostelfee_backend/internals/features/students/repository"
	"hostelfee_backend/internals/helpers/logger"
)

type mockStudents struct{ mock.Mock }

func (m *mockStudents) FindByID(ctx context.Context, id uuid.UUID) (*studentModel.Student, error) {
	args := m.Called(ctx, id)
	st, _ := args.Get(0).(*studentModel.Student)
	return st, args.Error(1)
}

type mockRecent struct{ mock.Mock }

func (m *mockRecent) ExistsSince(ctx context.Context, studentID uuid.UUID, paymentType model.PaymentType, since time.Time) (bool, error) {
	args := m.Called(ctx, studentID, paymentType, since)
	return args.Bool(0), args.Error(1)
}

type memoryWriter struct {
	rows []*model.Payment
	err  error
}

func (w *memoryWriter) Create(ctx context.Context, p *model.Payment) error {
	if w.err != nil {
		return w.err
	}
	p.PaymentID = uuid.New()
	w.rows = append(w.rows, p)
	return nil
}

var fixedNow = time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)

func activeStudent() *studentModel.Student {
	return &studentModel.Student{
		StudentID:           uuid.New(),
		StudentAcademicYear: "2025-2026",
		StudentStatus:       studentModel.StudentStatusActive,
	}
}

func strp(s string) *string { return &s }

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func validRequest(st *studentModel.Student) *dto.CreatePaymentRequest {
	return &dto.CreatePaymentRequest{
		PaymentStudentID: st.StudentID,
		PaymentAmount:    amount(12000),
		PaymentType:      "hostel_fee",
		PaymentTerm:      strp("term1"),
		PaymentMethod:    "cash",
	}
}

func newValidator(st *studentModel.Student, dup bool) (*PaymentValidator, *mockStudents, *mockRecent) {
	students := &mockStudents{}
	recent := &mockRecent{}
	if st != nil {
		students.On("FindByID", mock.Anything, st.StudentID).Return(st, nil)
		recent.On("ExistsSince", mock.Anything, st.StudentID, mock.Anything, fixedNow.Add(-2*time.Minute)).Return(dup, nil)
	}
	v := NewPaymentValidator(students, recent, 2*time.Minute).WithClock(func() time.Time { return fixedNow })
	return v, students, recent
}

func TestValidate_AcceptsWellFormedPayment(t *testing.T) {
	st := activeStudent()
	v, _, recent := newValidator(st, false)

	msgs, got, err := v.Validate(context.Background(), validRequest(st))
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Equal(t, st, got)
	recent.AssertCalled(t, "ExistsSince", mock.Anything, st.StudentID, model.PaymentTypeHostelFee, fixedNow.Add(-2*time.Minute))
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	st := activeStudent()
	st.StudentStatus = studentModel.StudentStatusInactive
	v, _, _ := newValidator(st, true)

	req := &dto.CreatePaymentRequest{
		PaymentStudentID: st.StudentID,
		PaymentAmount:    amount(0),
		PaymentType:      "hostel_fee",
		PaymentMethod:    " ",
	}
	msgs, _, err := v.Validate(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, msgs, "Please enter a valid amount greater than zero")
	assert.Contains(t, msgs, "Please select a payment method")
	assert.Contains(t, msgs, "Please select a term for hostel fee payments")
	assert.Contains(t, msgs, "Cannot record a payment for an inactive student")
	assert.Contains(t, msgs, "A hostel fee payment for this student was already recorded in the last 2 minutes; wait before submitting again")
}

func TestValidate_OnlineNeedsUTR(t *testing.T) {
	st := activeStudent()
	v, _, _ := newValidator(st, false)

	req := validRequest(st)
	req.PaymentMethod = "Online"
	req.PaymentUTRNumber = strp("   ")
	msgs, _, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"UTR number is required for online payments"}, msgs)

	req.PaymentUTRNumber = strp("UTR998877")
	msgs, _, err = v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestValidate_TermOnlyForHostelFee(t *testing.T) {
	st := activeStudent()
	v, _, _ := newValidator(st, false)

	req := validRequest(st)
	req.PaymentType = "electricity"
	msgs, _, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Term only applies to hostel fee payments"}, msgs)
}

func TestValidate_StructTagMessages(t *testing.T) {
	st := activeStudent()
	v, _, _ := newValidator(st, false)

	req := validRequest(st)
	req.PaymentTerm = strp("term4")
	req.PaymentDate = strp("01/09/2025")
	msgs, _, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, msgs, "The term must be one of: term1, term2, term3")
	assert.Contains(t, msgs, "The payment date must be a date in YYYY-MM-DD format")
}

func TestValidate_UnknownStudent(t *testing.T) {
	students := &mockStudents{}
	id := uuid.New()
	students.On("FindByID", mock.Anything, id).Return(nil, studentRepo.ErrStudentNotFound)
	v := NewPaymentValidator(students, &mockRecent{}, time.Minute)

	req := &dto.CreatePaymentRequest{PaymentStudentID: id, PaymentAmount: amount(10), PaymentType: "electricity", PaymentMethod: "cash"}
	msgs, st, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, st)
	assert.Equal(t, []string{"Student not found"}, msgs)
}

func TestValidate_LookupFailureIsAnError(t *testing.T) {
	students := &mockStudents{}
	id := uuid.New()
	students.On("FindByID", mock.Anything, id).Return(nil, errors.New("db down"))
	v := NewPaymentValidator(students, &mockRecent{}, time.Minute)

	_, _, err := v.Validate(context.Background(), &dto.CreatePaymentRequest{PaymentStudentID: id, PaymentType: "electricity", PaymentMethod: "cash", PaymentAmount: amount(1)})
	assert.Error(t, err)
}

func TestRecord_DefaultsYearAndDateThenNotifies(t *testing.T) {
	st := activeStudent()
	v, _, _ := newValidator(st, false)
	w := &memoryWriter{}
	ist := time.FixedZone("IST", 5*3600+1800)
	svc := NewPaymentService(v, w, ist, logger.Discard())

	var notified *model.Payment
	svc.OnRecorded(func(p *model.Payment) { notified = p })

	req := validRequest(st)
	req.PaymentMeta = map[string]any{"receipt": "R-101"}
	p, err := svc.Record(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, "2025-2026", p.PaymentAcademicYear)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, ist), p.PaymentDate)
	require.NotNil(t, p.PaymentTerm)
	assert.Equal(t, model.Term1, *p.PaymentTerm)
	assert.JSONEq(t, `{"receipt":"R-101"}`, string(p.PaymentMeta))
	assert.Len(t, w.rows, 1)
	assert.Same(t, p, notified)
}

func TestRecord_RejectsInvalidWithoutWriting(t *testing.T) {
	st := activeStudent()
	v, _, _ := newValidator(st, false)
	w := &memoryWriter{}
	svc := NewPaymentService(v, w, time.UTC, logger.Discard())

	req := validRequest(st)
	req.PaymentAmount = nil
	_, err := svc.Record(context.Background(), req, nil)

	var invalid *ErrInvalidPayment
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"Please enter a valid amount greater than zero"}, invalid.Messages)
	assert.Empty(t, w.rows)
}

func TestRecord_ExplicitDateAndYear(t *testing.T) {
	st := activeStudent()
	v, _, _ := newValidator(st, false)
	svc := NewPaymentService(v, &memoryWriter{}, time.UTC, logger.Discard())

	req := validRequest(st)
	req.PaymentAcademicYear = "2024-2025"
	req.PaymentDate = strp("2025-03-31")
	p, err := svc.Record(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-2025", p.PaymentAcademicYear)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), p.PaymentDate)
}

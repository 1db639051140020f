package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hostelfee_backend/internals/features/finance/payments/dto"
	"hostelfee_backend/internals/features/finance/payments/model"
	"hostelfee_backend/internals/helpers/dbtime"
)

// ErrInvalidPayment carries the validation messages of a rejected payment.
type ErrInvalidPayment struct {
	Messages []string
}

func (e *ErrInvalidPayment) Error() string {
	return "invalid payment: " + strings.Join(e.Messages, "; ")
}

type PaymentWriter interface {
	Create(ctx context.Context, p *model.Payment) error
}

// PaymentService records payments after validation. Recorded hooks run after a
// successful insert; the ledger uses them to drop memoized cohort results.
type PaymentService struct {
	validator *PaymentValidator
	writer    PaymentWriter
	loc       *time.Location
	log       logrus.FieldLogger
	recorded  []func(p *model.Payment)
}

func NewPaymentService(v *PaymentValidator, w PaymentWriter, loc *time.Location, log logrus.FieldLogger) *PaymentService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PaymentService{validator: v, writer: w, loc: loc, log: log}
}

func (s *PaymentService) OnRecorded(fn func(p *model.Payment)) {
	s.recorded = append(s.recorded, fn)
}

// Check runs validation only.
func (s *PaymentService) Check(ctx context.Context, req *dto.CreatePaymentRequest) ([]string, error) {
	msgs, _, err := s.validator.Validate(ctx, req)
	return msgs, err
}

func (s *PaymentService) Record(ctx context.Context, req *dto.CreatePaymentRequest, recordedBy *uuid.UUID) (*model.Payment, error) {
	msgs, st, err := s.validator.Validate(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		return nil, &ErrInvalidPayment{Messages: msgs}
	}

	academicYear := req.PaymentAcademicYear
	if academicYear == "" {
		academicYear = strings.TrimSpace(st.StudentAcademicYear)
	}

	paidOn := dbtime.DateOf(s.validator.now().In(s.loc))
	if req.PaymentDate != nil {
		t, err := time.ParseInLocation(dbtime.DateLayout, *req.PaymentDate, s.loc)
		if err != nil {
			return nil, &ErrInvalidPayment{Messages: []string{"The payment date must be a date in YYYY-MM-DD format"}}
		}
		paidOn = t
	}

	p, err := req.ToModel(academicYear, paidOn, recordedBy)
	if err != nil {
		return nil, errors.Wrap(err, "encode payment meta")
	}
	if err := s.writer.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"payment_id":    p.PaymentID.String(),
		"student_id":    p.PaymentStudentID.String(),
		"academic_year": p.PaymentAcademicYear,
		"type":          p.PaymentType,
		"amount":        p.PaymentAmount.String(),
	}).Info("[PAYMENT] recorded")

	for _, fn := range s.recorded {
		fn(p)
	}
	return p, nil
}

package dto

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"hostelfee_backend/internals/features/finance/payments/model"
)

/* =========================================================
   REQUEST
========================================================= */

// CreatePaymentRequest is validated in two passes: struct tags here, then the
// business rules in service.PaymentValidator.
type CreatePaymentRequest struct {
	PaymentStudentID    uuid.UUID        `json:"payment_student_id" validate:"required"`
	PaymentAcademicYear string           `json:"payment_academic_year" validate:"omitempty,max=20"`
	PaymentAmount       *decimal.Decimal `json:"payment_amount"`

	PaymentType   string  `json:"payment_type" validate:"required,oneof=hostel_fee electricity additional_fee"`
	PaymentTerm   *string `json:"payment_term" validate:"omitempty,oneof=term1 term2 term3"`
	PaymentMethod string  `json:"payment_method"`

	PaymentUTRNumber *string `json:"payment_utr_number" validate:"omitempty,max=60"`
	PaymentNote      *string `json:"payment_note"`

	// "YYYY-MM-DD"; empty means today
	PaymentDate *string        `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMeta map[string]any `json:"payment_meta,omitempty"`
}

// Normalize trims free-text fields in place.
func (r *CreatePaymentRequest) Normalize() {
	r.PaymentAcademicYear = strings.TrimSpace(r.PaymentAcademicYear)
	r.PaymentType = strings.ToLower(strings.TrimSpace(r.PaymentType))
	r.PaymentMethod = strings.ToLower(strings.TrimSpace(r.PaymentMethod))
	if r.PaymentTerm != nil {
		t := strings.ToLower(strings.TrimSpace(*r.PaymentTerm))
		if t == "" {
			r.PaymentTerm = nil
		} else {
			r.PaymentTerm = &t
		}
	}
	if r.PaymentUTRNumber != nil {
		u := strings.TrimSpace(*r.PaymentUTRNumber)
		if u == "" {
			r.PaymentUTRNumber = nil
		} else {
			r.PaymentUTRNumber = &u
		}
	}
}

// ToModel builds the payment row. academicYear is the resolved year (request value
// or the student's own), paidOn is the parsed payment date.
func (r *CreatePaymentRequest) ToModel(academicYear string, paidOn time.Time, recordedBy *uuid.UUID) (*model.Payment, error) {
	p := &model.Payment{
		PaymentStudentID:    r.PaymentStudentID,
		PaymentAcademicYear: academicYear,
		PaymentType:         model.PaymentType(r.PaymentType),
		PaymentMethod:       r.PaymentMethod,
		PaymentUTRNumber:    r.PaymentUTRNumber,
		PaymentNote:         r.PaymentNote,
		PaymentRecordedBy:   recordedBy,
		PaymentDate:         paidOn,
	}
	if r.PaymentAmount != nil {
		p.PaymentAmount = *r.PaymentAmount
	}
	if r.PaymentTerm != nil {
		t := model.Term(*r.PaymentTerm)
		p.PaymentTerm = &t
	}
	if len(r.PaymentMeta) > 0 {
		b, err := json.Marshal(r.PaymentMeta)
		if err != nil {
			return nil, err
		}
		p.PaymentMeta = datatypes.JSON(b)
	}
	return p, nil
}

/* =========================================================
   RESPONSE
========================================================= */

type PaymentResponse struct {
	PaymentID           uuid.UUID         `json:"payment_id"`
	PaymentStudentID    uuid.UUID         `json:"payment_student_id"`
	PaymentAcademicYear string            `json:"payment_academic_year"`
	PaymentAmount       decimal.Decimal   `json:"payment_amount"`
	PaymentType         model.PaymentType `json:"payment_type"`
	PaymentTerm         *model.Term       `json:"payment_term,omitempty"`
	PaymentMethod       string            `json:"payment_method"`
	PaymentUTRNumber    *string           `json:"payment_utr_number,omitempty"`
	PaymentNote         *string           `json:"payment_note,omitempty"`
	PaymentMeta         datatypes.JSON    `json:"payment_meta,omitempty"`
	PaymentDate         string            `json:"payment_date"`
	PaymentCreatedAt    time.Time         `json:"payment_created_at"`
}

func FromModel(p *model.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:           p.PaymentID,
		PaymentStudentID:    p.PaymentStudentID,
		PaymentAcademicYear: p.PaymentAcademicYear,
		PaymentAmount:       p.PaymentAmount,
		PaymentType:         p.PaymentType,
		PaymentTerm:         p.PaymentTerm,
		PaymentMethod:       p.PaymentMethod,
		PaymentUTRNumber:    p.PaymentUTRNumber,
		PaymentNote:         p.PaymentNote,
		PaymentMeta:         p.PaymentMeta,
		PaymentDate:         p.PaymentDate.Format("2006-01-02"),
		PaymentCreatedAt:    p.PaymentCreatedAt,
	}
}

func FromModels(rows []model.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

// ValidationResponse is returned by the dry-run validation endpoint.
type ValidationResponse struct {
	Valid    bool     `json:"valid"`
	Messages []string `json:"messages"`
}

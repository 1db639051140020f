package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

/* ===================== Enums (string) ===================== */

type Term string

const (
	Term1 Term = "term1"
	Term2 Term = "term2"
	Term3 Term = "term3"
)

// Terms in allocation order.
var Terms = [3]Term{Term1, Term2, Term3}

// Index returns 0..2, or -1 for an unknown term.
func (t Term) Index() int {
	switch t {
	case Term1:
		return 0
	case Term2:
		return 1
	case Term3:
		return 2
	}
	return -1
}

type PaymentType string

const (
	PaymentTypeHostelFee     PaymentType = "hostel_fee"
	PaymentTypeElectricity   PaymentType = "electricity"
	PaymentTypeAdditionalFee PaymentType = "additional_fee"
)

const (
	PaymentMethodCash   = "cash"
	PaymentMethodOnline = "online"
)

/* ===================== Model ===================== */

// Payment is immutable once recorded; nothing in the ledger updates or deletes it.
type Payment struct {
	PaymentID           uuid.UUID       `gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_id"`
	PaymentStudentID    uuid.UUID       `gorm:"column:payment_student_id;type:uuid;not null;index:ix_payments_student_year,priority:1" json:"payment_student_id"`
	PaymentAcademicYear string          `gorm:"column:payment_academic_year;type:varchar(20);not null;index:ix_payments_student_year,priority:2" json:"payment_academic_year"`
	PaymentAmount       decimal.Decimal `gorm:"column:payment_amount;type:numeric(14,2);not null" json:"payment_amount"`

	// Only hostel_fee payments carry a term.
	PaymentTerm *Term       `gorm:"column:payment_term;type:varchar(10)" json:"payment_term,omitempty"`
	PaymentType PaymentType `gorm:"column:payment_type;type:varchar(30);not null;index" json:"payment_type"`

	PaymentMethod    string  `gorm:"column:payment_method;type:varchar(20);not null" json:"payment_method"`
	PaymentUTRNumber *string `gorm:"column:payment_utr_number;type:varchar(60)" json:"payment_utr_number,omitempty"`
	PaymentNote      *string `gorm:"column:payment_note;type:text" json:"payment_note,omitempty"`

	PaymentMeta       datatypes.JSON `gorm:"column:payment_meta;type:jsonb" json:"payment_meta,omitempty"`
	PaymentRecordedBy *uuid.UUID     `gorm:"column:payment_recorded_by;type:uuid" json:"payment_recorded_by,omitempty"`

	PaymentDate      time.Time `gorm:"column:payment_date;type:timestamptz;not null" json:"payment_date"`
	PaymentCreatedAt time.Time `gorm:"column:payment_created_at;type:timestamptz;not null;autoCreateTime;index" json:"payment_created_at"`
}

func (Payment) TableName() string { return "payments" }

// TermIndex returns 0..2 for a term-tagged hostel fee payment, -1 otherwise.
func (p *Payment) TermIndex() int {
	if p.PaymentType != PaymentTypeHostelFee || p.PaymentTerm == nil {
		return -1
	}
	return p.PaymentTerm.Index()
}

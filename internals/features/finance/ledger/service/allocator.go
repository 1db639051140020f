package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	feeModel "hostelfee_backend/internals/features/finance/fee_structures/model"
	paymentModel "hostelfee_backend/internals/features/finance/payments/model"
	studentModel "hostelfee_backend/internals/features/students/model"
)

// TermBalance is derived on every read and never stored.
type TermBalance struct {
	Term     paymentModel.Term `json:"term"`
	Required decimal.Decimal   `json:"required"`
	RawPaid  decimal.Decimal   `json:"raw_paid"` // sum of payments tagged with this term
	Paid     decimal.Decimal   `json:"paid"`     // after carry-in, capped at Required
	Balance  decimal.Decimal   `json:"balance"`
	LateFee  decimal.Decimal   `json:"late_fee"` // assessed, never part of Balance
}

// Balance is one student's position for one academic year.
type Balance struct {
	StudentID      uuid.UUID      `json:"student_id"`
	AcademicYear   string         `json:"academic_year"`
	FeeStructureID uuid.UUID      `json:"fee_structure_id"`
	Terms          [3]TermBalance `json:"terms"`

	TotalRequired   decimal.Decimal `json:"total_required"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	TotalBalance    decimal.Decimal `json:"total_balance"`
	TotalLateFee    decimal.Decimal `json:"total_late_fee"`
	RemainingExcess decimal.Decimal `json:"remaining_excess"`
	IsFullyPaid     bool            `json:"is_fully_paid"`

	HasConcession      bool            `json:"has_concession"`
	Concession         decimal.Decimal `json:"concession"`
	OriginalTotalFee   decimal.Decimal `json:"original_total_fee"`
	CalculatedTotalFee decimal.Decimal `json:"calculated_total_fee"`
}

// RequiredForTerm: student override, else structure term fee, else the default
// split of total_fee rounded half away from zero.
func RequiredForTerm(st *studentModel.Student, fs *feeModel.FeeStructure, i int) decimal.Decimal {
	if v := st.CalculatedTermFee(i); v != nil {
		return *v
	}
	if v := fs.TermFee(i); v != nil {
		return *v
	}
	return fs.FeeStructureTotalFee.Mul(feeModel.DefaultTermSplit[i]).Round(0)
}

// termPaid sums this student's fee payments per term for the student's academic year.
// Other years, other payment types and untagged payments never count.
func termPaid(st *studentModel.Student, payments []paymentModel.Payment) [3]decimal.Decimal {
	var paid [3]decimal.Decimal
	year := strings.TrimSpace(st.StudentAcademicYear)
	for i := range payments {
		p := &payments[i]
		if p.PaymentStudentID != st.StudentID || strings.TrimSpace(p.PaymentAcademicYear) != year {
			continue
		}
		if idx := p.TermIndex(); idx >= 0 {
			paid[idx] = paid[idx].Add(p.PaymentAmount)
		}
	}
	return paid
}

// ComputeBalance returns nil when there is no fee structure. Inputs are not modified.
func ComputeBalance(st *studentModel.Student, fs *feeModel.FeeStructure, payments []paymentModel.Payment) *Balance {
	if st == nil || fs == nil {
		return nil
	}

	raw := termPaid(st, payments)
	b := &Balance{
		StudentID:        st.StudentID,
		AcademicYear:     st.StudentAcademicYear,
		FeeStructureID:   fs.FeeStructureID,
		Concession:       st.StudentConcession,
		HasConcession:    st.StudentConcession.IsPositive(),
		OriginalTotalFee: fs.FeeStructureTotalFee,
	}
	b.CalculatedTotalFee = b.OriginalTotalFee
	if st.StudentTotalCalculatedFee != nil {
		b.CalculatedTotalFee = *st.StudentTotalCalculatedFee
	}

	// Single pass term1 → term3; excess over a term flows into the next one.
	carry := decimal.Zero
	for i, term := range paymentModel.Terms {
		required := RequiredForTerm(st, fs, i)
		effective := raw[i].Add(carry)

		tb := TermBalance{
			Term:     term,
			Required: required,
			RawPaid:  raw[i],
			LateFee:  st.LateFee(i),
		}
		if effective.GreaterThan(required) {
			tb.Paid = required
			tb.Balance = decimal.Zero
			carry = effective.Sub(required)
		} else {
			tb.Paid = effective
			tb.Balance = decimal.Max(decimal.Zero, required.Sub(effective))
			carry = decimal.Zero
		}
		b.Terms[i] = tb

		b.TotalRequired = b.TotalRequired.Add(required)
		b.TotalPaid = b.TotalPaid.Add(raw[i])
		b.TotalBalance = b.TotalBalance.Add(tb.Balance)
		b.TotalLateFee = b.TotalLateFee.Add(tb.LateFee)
	}
	b.RemainingExcess = carry
	b.IsFullyPaid = b.TotalBalance.IsZero()
	return b
}

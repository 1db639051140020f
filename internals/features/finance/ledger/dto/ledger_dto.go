// file: internals/features/finance/ledger/dto/ledger_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hostelfee_backend/internals/features/finance/ledger/service"
	studentModel "hostelfee_backend/internals/features/students/model"
	"hostelfee_backend/internals/helpers/dbtime"
)

type StudentSummary struct {
	StudentID             uuid.UUID                  `json:"student_id"`
	StudentName           string                     `json:"student_name"`
	StudentRollNumber     string                     `json:"student_roll_number"`
	StudentCourse         string                     `json:"student_course"`
	StudentYear           int                        `json:"student_year"`
	StudentAcademicYear   string                     `json:"student_academic_year"`
	StudentCategory       *string                    `json:"student_category,omitempty"`
	StudentHostelCategory *string                    `json:"student_hostel_category,omitempty"`
	StudentStatus         studentModel.StudentStatus `json:"student_status"`
}

func summaryOf(st *studentModel.Student) StudentSummary {
	return StudentSummary{
		StudentID:             st.StudentID,
		StudentName:           st.StudentName,
		StudentRollNumber:     st.StudentRollNumber,
		StudentCourse:         st.StudentCourse,
		StudentYear:           st.StudentYear,
		StudentAcademicYear:   st.StudentAcademicYear,
		StudentCategory:       st.StudentCategory,
		StudentHostelCategory: st.StudentHostelCategory,
		StudentStatus:         st.StudentStatus,
	}
}

type TermView struct {
	Term              string           `json:"term"`
	DueDate           *string          `json:"due_date,omitempty"`
	IsDue             bool             `json:"is_due"`
	RawBalance        decimal.Decimal  `json:"raw_balance"`
	Balance           decimal.Decimal  `json:"balance"`
	LateFee           decimal.Decimal  `json:"late_fee"`
	ConfiguredLateFee *decimal.Decimal `json:"configured_late_fee,omitempty"`
}

func termViews(terms [3]service.TermPosition) []TermView {
	out := make([]TermView, 0, len(terms))
	for _, tp := range terms {
		v := TermView{
			Term:              string(tp.Term),
			IsDue:             tp.IsDue,
			RawBalance:        tp.RawBalance,
			Balance:           tp.Balance,
			LateFee:           tp.LateFee,
			ConfiguredLateFee: tp.ConfiguredLateFee,
		}
		if tp.DueDate != nil {
			s := tp.DueDate.Format(dbtime.DateLayout)
			v.DueDate = &s
		}
		out = append(out, v)
	}
	return out
}

// StudentLedgerResponse pairs the raw balance with the view gated on as_of.
type StudentLedgerResponse struct {
	Student                StudentSummary   `json:"student"`
	FeeStructureConfigured bool             `json:"fee_structure_configured"`
	DueDatesConfigured     bool             `json:"due_dates_configured"`
	Balance                *service.Balance `json:"balance,omitempty"`
	Terms                  []TermView       `json:"terms"`
	TotalDue               decimal.Decimal  `json:"total_due"`
}

func FromPosition(pos *service.StudentPosition) StudentLedgerResponse {
	return StudentLedgerResponse{
		Student:                summaryOf(pos.Student),
		FeeStructureConfigured: pos.FeeStructureConfigured,
		DueDatesConfigured:     pos.DueDatesConfigured,
		Balance:                pos.Balance,
		Terms:                  termViews(pos.Terms),
		TotalDue:               pos.TotalDue,
	}
}

func FromPositions(rows []service.StudentPosition) []StudentLedgerResponse {
	out := make([]StudentLedgerResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromPosition(&rows[i]))
	}
	return out
}

// StudentBalanceResponse is the single-student detail.
type StudentBalanceResponse struct {
	AsOf string `json:"as_of"`
	StudentLedgerResponse
}

// StatsResponse carries cohort totals and the bookkeeping of the run that made them.
type StatsResponse struct {
	AsOf       string         `json:"as_of"`
	Totals     service.Totals `json:"totals"`
	Token      uint64         `json:"token"`
	InputHash  string         `json:"input_hash"`
	ComputedAt time.Time      `json:"computed_at"`
	Reused     bool           `json:"reused"`

	// Set when a row cap cut the input; totals then cover a partial cohort.
	StudentLimitReached bool `json:"student_limit_reached"`
	PaymentLimitReached bool `json:"payment_limit_reached"`
}

func FromComputation(c *service.Computation) StatsResponse {
	return StatsResponse{
		AsOf:       c.Result.AsOf.Format(dbtime.DateLayout),
		Totals:     c.Result.Totals,
		Token:      c.Token,
		InputHash:  c.InputHash,
		ComputedAt: c.ComputedAt,
		Reused:     c.Reused,
	}
}

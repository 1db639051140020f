// file: internals/features/finance/due_dates/dto/term_due_date_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hostelfee_backend/internals/features/finance/due_dates/model"
	helper "hostelfee_backend/internals/helpers"
	"hostelfee_backend/internals/helpers/dbtime"
)

/* =========================================================
   REQUEST: Upsert
========================================================= */

// UpsertTermDueDateRequest configures the due dates of one (course, academic
// year, year of study) key. Dates are calendar days, "YYYY-MM-DD".
type UpsertTermDueDateRequest struct {
	TermDueDateCourse       string `json:"term_due_date_course" validate:"required,max=120"`
	TermDueDateAcademicYear string `json:"term_due_date_academic_year" validate:"required,max=20"`
	TermDueDateYearOfStudy  int    `json:"term_due_date_year_of_study" validate:"required,min=1,max=10"`

	TermDueDateTerm1 string `json:"term_due_date_term1" validate:"required,datetime=2006-01-02"`
	TermDueDateTerm2 string `json:"term_due_date_term2" validate:"required,datetime=2006-01-02"`
	TermDueDateTerm3 string `json:"term_due_date_term3" validate:"required,datetime=2006-01-02"`

	TermDueDateTerm1LateFee *decimal.Decimal `json:"term_due_date_term1_late_fee"`
	TermDueDateTerm2LateFee *decimal.Decimal `json:"term_due_date_term2_late_fee"`
	TermDueDateTerm3LateFee *decimal.Decimal `json:"term_due_date_term3_late_fee"`
}

// ToModel parses the dates as UTC midnight, the way DATE columns scan back.
// Problems are returned per field; the model is nil when any exist.
func (r *UpsertTermDueDateRequest) ToModel() (*model.TermDueDate, map[string][]string) {
	problems := map[string][]string{}

	parse := func(field, raw string) time.Time {
		t, err := time.Parse(dbtime.DateLayout, strings.TrimSpace(raw))
		if err != nil {
			problems[field] = append(problems[field], "datetime")
		}
		return t
	}
	t1 := parse("term_due_date_term1", r.TermDueDateTerm1)
	t2 := parse("term_due_date_term2", r.TermDueDateTerm2)
	t3 := parse("term_due_date_term3", r.TermDueDateTerm3)
	if len(problems) == 0 {
		if t2.Before(t1) {
			problems["term_due_date_term2"] = append(problems["term_due_date_term2"], "after_term1")
		}
		if t3.Before(t2) {
			problems["term_due_date_term3"] = append(problems["term_due_date_term3"], "after_term2")
		}
	}

	fees := []struct {
		key string
		v   *decimal.Decimal
	}{
		{"term_due_date_term1_late_fee", r.TermDueDateTerm1LateFee},
		{"term_due_date_term2_late_fee", r.TermDueDateTerm2LateFee},
		{"term_due_date_term3_late_fee", r.TermDueDateTerm3LateFee},
	}
	for _, f := range fees {
		if f.v != nil && f.v.IsNegative() {
			problems[f.key] = append(problems[f.key], "gte")
		}
	}
	if len(problems) > 0 {
		return nil, problems
	}

	return &model.TermDueDate{
		TermDueDateCourse:       helper.CleanName(r.TermDueDateCourse),
		TermDueDateAcademicYear: strings.TrimSpace(r.TermDueDateAcademicYear),
		TermDueDateYearOfStudy:  r.TermDueDateYearOfStudy,
		TermDueDateTerm1:        t1,
		TermDueDateTerm2:        t2,
		TermDueDateTerm3:        t3,
		TermDueDateTerm1LateFee: r.TermDueDateTerm1LateFee,
		TermDueDateTerm2LateFee: r.TermDueDateTerm2LateFee,
		TermDueDateTerm3LateFee: r.TermDueDateTerm3LateFee,
	}, nil
}

/* =========================================================
   RESPONSE
========================================================= */

type TermDueDateResponse struct {
	TermDueDateID           uuid.UUID        `json:"term_due_date_id"`
	TermDueDateCourse       string           `json:"term_due_date_course"`
	TermDueDateAcademicYear string           `json:"term_due_date_academic_year"`
	TermDueDateYearOfStudy  int              `json:"term_due_date_year_of_study"`
	TermDueDateTerm1        string           `json:"term_due_date_term1"`
	TermDueDateTerm2        string           `json:"term_due_date_term2"`
	TermDueDateTerm3        string           `json:"term_due_date_term3"`
	TermDueDateTerm1LateFee *decimal.Decimal `json:"term_due_date_term1_late_fee,omitempty"`
	TermDueDateTerm2LateFee *decimal.Decimal `json:"term_due_date_term2_late_fee,omitempty"`
	TermDueDateTerm3LateFee *decimal.Decimal `json:"term_due_date_term3_late_fee,omitempty"`
	TermDueDateUpdatedAt    time.Time        `json:"term_due_date_updated_at"`
}

func FromModel(m *model.TermDueDate) TermDueDateResponse {
	return TermDueDateResponse{
		TermDueDateID:           m.TermDueDateID,
		TermDueDateCourse:       m.TermDueDateCourse,
		TermDueDateAcademicYear: m.TermDueDateAcademicYear,
		TermDueDateYearOfStudy:  m.TermDueDateYearOfStudy,
		TermDueDateTerm1:        m.TermDueDateTerm1.Format(dbtime.DateLayout),
		TermDueDateTerm2:        m.TermDueDateTerm2.Format(dbtime.DateLayout),
		TermDueDateTerm3:        m.TermDueDateTerm3.Format(dbtime.DateLayout),
		TermDueDateTerm1LateFee: m.TermDueDateTerm1LateFee,
		TermDueDateTerm2LateFee: m.TermDueDateTerm2LateFee,
		TermDueDateTerm3LateFee: m.TermDueDateTerm3LateFee,
		TermDueDateUpdatedAt:    m.TermDueDateUpdatedAt,
	}
}

func FromModels(rows []model.TermDueDate) []TermDueDateResponse {
	out := make([]TermDueDateResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

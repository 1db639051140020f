package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request() UpsertTermDueDateRequest {
	return UpsertTermDueDateRequest{
		TermDueDateCourse:       " B.Tech ",
		TermDueDateAcademicYear: "2025-2026",
		TermDueDateYearOfStudy:  2,
		TermDueDateTerm1:        "2025-07-15",
		TermDueDateTerm2:        "2025-11-15",
		TermDueDateTerm3:        "2026-02-15",
	}
}

func TestToModel_ParsesCalendarDays(t *testing.T) {
	r := request()
	fee := decimal.NewFromInt(250)
	r.TermDueDateTerm2LateFee = &fee

	m, problems := r.ToModel()
	require.Nil(t, problems)
	assert.Equal(t, "B.Tech", m.TermDueDateCourse)
	assert.Equal(t, time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC), m.TermDueDateTerm2)
	assert.Nil(t, m.TermDueDateTerm1LateFee)
	assert.True(t, m.TermDueDateTerm2LateFee.Equal(fee))

	resp := FromModel(m)
	assert.Equal(t, "2026-02-15", resp.TermDueDateTerm3)
}

func TestToModel_RejectsOutOfOrderDates(t *testing.T) {
	r := request()
	r.TermDueDateTerm3 = "2025-10-01"

	m, problems := r.ToModel()
	assert.Nil(t, m)
	assert.Equal(t, map[string][]string{"term_due_date_term3": {"after_term2"}}, problems)
}

func TestToModel_SameDayIsAllowed(t *testing.T) {
	r := request()
	r.TermDueDateTerm2 = r.TermDueDateTerm1

	_, problems := r.ToModel()
	assert.Nil(t, problems)
}

func TestToModel_RejectsNegativeLateFee(t *testing.T) {
	r := request()
	neg := decimal.NewFromInt(-1)
	r.TermDueDateTerm1LateFee = &neg

	_, problems := r.ToModel()
	assert.Equal(t, []string{"gte"}, problems["term_due_date_term1_late_fee"])
}

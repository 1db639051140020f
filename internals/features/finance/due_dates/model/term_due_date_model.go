package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TermDueDate is the per (course, academic year, year of study) due-date setup.
// Fee category is deliberately not part of the key: all categories share dates.
type TermDueDate struct {
	TermDueDateID           uuid.UUID `gorm:"column:term_due_date_id;type:uuid;default:gen_random_uuid();primaryKey" json:"term_due_date_id"`
	TermDueDateCourse       string    `gorm:"column:term_due_date_course;type:varchar(120);not null;uniqueIndex:uq_term_due_dates_key,priority:1" json:"term_due_date_course"`
	TermDueDateAcademicYear string    `gorm:"column:term_due_date_academic_year;type:varchar(20);not null;uniqueIndex:uq_term_due_dates_key,priority:2" json:"term_due_date_academic_year"`
	TermDueDateYearOfStudy  int       `gorm:"column:term_due_date_year_of_study;not null;uniqueIndex:uq_term_due_dates_key,priority:3" json:"term_due_date_year_of_study"`

	TermDueDateTerm1 time.Time `gorm:"column:term_due_date_term1;type:date;not null" json:"term_due_date_term1"`
	TermDueDateTerm2 time.Time `gorm:"column:term_due_date_term2;type:date;not null" json:"term_due_date_term2"`
	TermDueDateTerm3 time.Time `gorm:"column:term_due_date_term3;type:date;not null" json:"term_due_date_term3"`

	TermDueDateTerm1LateFee *decimal.Decimal `gorm:"column:term_due_date_term1_late_fee;type:numeric(14,2)" json:"term_due_date_term1_late_fee,omitempty"`
	TermDueDateTerm2LateFee *decimal.Decimal `gorm:"column:term_due_date_term2_late_fee;type:numeric(14,2)" json:"term_due_date_term2_late_fee,omitempty"`
	TermDueDateTerm3LateFee *decimal.Decimal `gorm:"column:term_due_date_term3_late_fee;type:numeric(14,2)" json:"term_due_date_term3_late_fee,omitempty"`

	TermDueDateCreatedAt time.Time `gorm:"column:term_due_date_created_at;type:timestamptz;not null;autoCreateTime" json:"term_due_date_created_at"`
	TermDueDateUpdatedAt time.Time `gorm:"column:term_due_date_updated_at;type:timestamptz;not null;autoUpdateTime" json:"term_due_date_updated_at"`
}

func (TermDueDate) TableName() string { return "term_due_dates" }

// file: internals/features/students/model/student_model.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "active"
	StudentStatusInactive StudentStatus = "inactive"
)

// Student is owned by the student registry; the ledger only reads it.
// Concession and the calculated fee overrides are written by the concession workflow.
type Student struct {
	StudentID         uuid.UUID `gorm:"column:student_id;type:uuid;default:gen_random_uuid();primaryKey" json:"student_id"`
	StudentName       string    `gorm:"column:student_name;type:varchar(160);not null" json:"student_name"`
	StudentRollNumber string    `gorm:"column:student_roll_number;type:varchar(60);not null;index" json:"student_roll_number"`

	StudentCourse       string  `gorm:"column:student_course;type:varchar(120);not null;index:ix_students_cohort,priority:1" json:"student_course"`
	StudentBranch       *string `gorm:"column:student_branch;type:varchar(120)" json:"student_branch,omitempty"`
	StudentYear         int     `gorm:"column:student_year;not null;index:ix_students_cohort,priority:3" json:"student_year"`
	StudentAcademicYear string  `gorm:"column:student_academic_year;type:varchar(20);not null;index:ix_students_cohort,priority:2" json:"student_academic_year"`
	StudentCategory     *string `gorm:"column:student_category;type:varchar(40)" json:"student_category,omitempty"`

	StudentHostelID       *uuid.UUID `gorm:"column:student_hostel_id;type:uuid;index" json:"student_hostel_id,omitempty"`
	StudentHostelCategory *string    `gorm:"column:student_hostel_category;type:varchar(40)" json:"student_hostel_category,omitempty"`

	StudentConcession         decimal.Decimal  `gorm:"column:student_concession;type:numeric(14,2);not null;default:0" json:"student_concession"`
	StudentCalculatedTerm1Fee *decimal.Decimal `gorm:"column:student_calculated_term1_fee;type:numeric(14,2)" json:"student_calculated_term1_fee,omitempty"`
	StudentCalculatedTerm2Fee *decimal.Decimal `gorm:"column:student_calculated_term2_fee;type:numeric(14,2)" json:"student_calculated_term2_fee,omitempty"`
	StudentCalculatedTerm3Fee *decimal.Decimal `gorm:"column:student_calculated_term3_fee;type:numeric(14,2)" json:"student_calculated_term3_fee,omitempty"`
	StudentTotalCalculatedFee *decimal.Decimal `gorm:"column:student_total_calculated_fee;type:numeric(14,2)" json:"student_total_calculated_fee,omitempty"`

	// Late fees already assessed; orthogonal to the balance.
	StudentTerm1LateFee decimal.Decimal `gorm:"column:student_term1_late_fee;type:numeric(14,2);not null;default:0" json:"student_term1_late_fee"`
	StudentTerm2LateFee decimal.Decimal `gorm:"column:student_term2_late_fee;type:numeric(14,2);not null;default:0" json:"student_term2_late_fee"`
	StudentTerm3LateFee decimal.Decimal `gorm:"column:student_term3_late_fee;type:numeric(14,2);not null;default:0" json:"student_term3_late_fee"`

	StudentStatus StudentStatus `gorm:"column:student_status;type:varchar(20);not null;default:'active';index" json:"student_status"`

	StudentCreatedAt time.Time      `gorm:"column:student_created_at;type:timestamptz;not null;autoCreateTime" json:"student_created_at"`
	StudentUpdatedAt time.Time      `gorm:"column:student_updated_at;type:timestamptz;not null;autoUpdateTime" json:"student_updated_at"`
	StudentDeletedAt gorm.DeletedAt `gorm:"column:student_deleted_at;type:timestamptz;index" json:"-"`
}

func (Student) TableName() string { return "students" }

// CalculatedTermFee returns the post-concession override for term index 0..2, if any.
func (s *Student) CalculatedTermFee(i int) *decimal.Decimal {
	switch i {
	case 0:
		return s.StudentCalculatedTerm1Fee
	case 1:
		return s.StudentCalculatedTerm2Fee
	case 2:
		return s.StudentCalculatedTerm3Fee
	}
	return nil
}

// LateFee returns the assessed late fee for term index 0..2.
func (s *Student) LateFee(i int) decimal.Decimal {
	switch i {
	case 0:
		return s.StudentTerm1LateFee
	case 1:
		return s.StudentTerm2LateFee
	case 2:
		return s.StudentTerm3LateFee
	}
	return decimal.Zero
}

func (s *Student) IsActive() bool {
	return s.StudentStatus == "" || strings.EqualFold(string(s.StudentStatus), string(StudentStatusActive))
}

// InAcademicYear returns a copy of s viewed in another academic year. Concession,
// fee overrides and assessed late fees belong to the student's own year, so they
// are dropped when the year differs.
func (s *Student) InAcademicYear(academicYear string) Student {
	v := *s
	ay := strings.TrimSpace(academicYear)
	if ay == "" || ay == strings.TrimSpace(s.StudentAcademicYear) {
		return v
	}
	v.StudentAcademicYear = ay
	v.StudentConcession = decimal.Zero
	v.StudentCalculatedTerm1Fee = nil
	v.StudentCalculatedTerm2Fee = nil
	v.StudentCalculatedTerm3Fee = nil
	v.StudentTotalCalculatedFee = nil
	v.StudentTerm1LateFee = decimal.Zero
	v.StudentTerm2LateFee = decimal.Zero
	v.StudentTerm3LateFee = decimal.Zero
	return v
}

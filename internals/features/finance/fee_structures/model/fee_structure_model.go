// file: internals/features/finance/fee_structures/model/fee_structure_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Default share of total_fee per term when the explicit term fee is absent.
var DefaultTermSplit = [3]decimal.Decimal{
	decimal.RequireFromString("0.4"),
	decimal.RequireFromString("0.3"),
	decimal.RequireFromString("0.3"),
}

// FeeStructure is one priced offer for (course, year, academic year) with optional
// branch / hostel / category discriminators. A NULL discriminator applies to everyone.
type FeeStructure struct {
	FeeStructureID uuid.UUID `gorm:"column:fee_structure_id;type:uuid;default:gen_random_uuid();primaryKey" json:"fee_structure_id"`

	FeeStructureCourse       string `gorm:"column:fee_structure_course;type:varchar(120);not null;index:ix_fee_structures_lookup,priority:2" json:"fee_structure_course"`
	FeeStructureYear         int    `gorm:"column:fee_structure_year;not null;index:ix_fee_structures_lookup,priority:3" json:"fee_structure_year"`
	FeeStructureAcademicYear string `gorm:"column:fee_structure_academic_year;type:varchar(20);not null;index:ix_fee_structures_lookup,priority:1" json:"fee_structure_academic_year"`

	// Discriminators (NULL = unconstrained)
	FeeStructureBranch     *string    `gorm:"column:fee_structure_branch;type:varchar(120)" json:"fee_structure_branch,omitempty"`
	FeeStructureHostelID   *uuid.UUID `gorm:"column:fee_structure_hostel_id;type:uuid" json:"fee_structure_hostel_id,omitempty"`
	FeeStructureCategoryID *uuid.UUID `gorm:"column:fee_structure_category_id;type:uuid" json:"fee_structure_category_id,omitempty"`
	FeeStructureCategory   *string    `gorm:"column:fee_structure_category;type:varchar(40)" json:"fee_structure_category,omitempty"` // legacy code: A+, A, B+, B, C

	// Amounts
	FeeStructureTotalFee decimal.Decimal  `gorm:"column:fee_structure_total_fee;type:numeric(14,2);not null" json:"fee_structure_total_fee"`
	FeeStructureTerm1Fee *decimal.Decimal `gorm:"column:fee_structure_term1_fee;type:numeric(14,2)" json:"fee_structure_term1_fee,omitempty"`
	FeeStructureTerm2Fee *decimal.Decimal `gorm:"column:fee_structure_term2_fee;type:numeric(14,2)" json:"fee_structure_term2_fee,omitempty"`
	FeeStructureTerm3Fee *decimal.Decimal `gorm:"column:fee_structure_term3_fee;type:numeric(14,2)" json:"fee_structure_term3_fee,omitempty"`

	FeeStructureNote *string `gorm:"column:fee_structure_note;type:text" json:"fee_structure_note,omitempty"`

	FeeStructureCreatedAt time.Time      `gorm:"column:fee_structure_created_at;type:timestamptz;not null;autoCreateTime" json:"fee_structure_created_at"`
	FeeStructureUpdatedAt time.Time      `gorm:"column:fee_structure_updated_at;type:timestamptz;not null;autoUpdateTime" json:"fee_structure_updated_at"`
	FeeStructureDeletedAt gorm.DeletedAt `gorm:"column:fee_structure_deleted_at;type:timestamptz;index" json:"-"`
}

func (FeeStructure) TableName() string { return "fee_structures" }

// TermFee returns the explicit fee for term index 0..2, or nil.
func (f *FeeStructure) TermFee(i int) *decimal.Decimal {
	switch i {
	case 0:
		return f.FeeStructureTerm1Fee
	case 1:
		return f.FeeStructureTerm2Fee
	case 2:
		return f.FeeStructureTerm3Fee
	}
	return nil
}

// FeeCategory resolves fee_structure_category_id to a name/code pair.
type FeeCategory struct {
	FeeCategoryID   uuid.UUID `gorm:"column:fee_category_id;type:uuid;default:gen_random_uuid();primaryKey" json:"fee_category_id"`
	FeeCategoryName string    `gorm:"column:fee_category_name;type:varchar(60);not null" json:"fee_category_name"`
	FeeCategoryCode *string   `gorm:"column:fee_category_code;type:varchar(20)" json:"fee_category_code,omitempty"`

	FeeCategoryCreatedAt time.Time      `gorm:"column:fee_category_created_at;type:timestamptz;not null;autoCreateTime" json:"fee_category_created_at"`
	FeeCategoryDeletedAt gorm.DeletedAt `gorm:"column:fee_category_deleted_at;type:timestamptz;index" json:"-"`
}

func (FeeCategory) TableName() string { return "fee_categories" }

// file: internals/features/finance/fee_structures/dto/fee_structure_dto.go
package dto

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hostelfee_backend/internals/features/finance/fee_structures/model"
)

/* =========================================================
   PatchField tri-state (Unset / Null / Set(value))
========================================================= */

type PatchField[T any] struct {
	Set   bool `json:"-"`
	Null  bool `json:"-"`
	Value *T   `json:"-"`
}

func (p *PatchField[T]) UnmarshalJSON(b []byte) error {
	p.Set = true
	if string(b) == "null" {
		p.Null = true
		p.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	p.Value = &v
	return nil
}

// apply writes the patch into dst; Null clears an optional column.
func applyPtr[T any](p PatchField[T], dst **T) {
	if !p.Set {
		return
	}
	if p.Null {
		*dst = nil
		return
	}
	*dst = p.Value
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

/* =========================================================
   REQUEST: Create
========================================================= */

type CreateFeeStructureRequest struct {
	FeeStructureCourse       string `json:"fee_structure_course" validate:"required,max=120"`
	FeeStructureYear         int    `json:"fee_structure_year" validate:"required,min=1,max=10"`
	FeeStructureAcademicYear string `json:"fee_structure_academic_year" validate:"required,max=20"`

	FeeStructureBranch     *string    `json:"fee_structure_branch" validate:"omitempty,max=120"`
	FeeStructureHostelID   *uuid.UUID `json:"fee_structure_hostel_id"`
	FeeStructureCategoryID *uuid.UUID `json:"fee_structure_category_id"`
	FeeStructureCategory   *string    `json:"fee_structure_category" validate:"omitempty,max=40"`

	FeeStructureTotalFee decimal.Decimal  `json:"fee_structure_total_fee"`
	FeeStructureTerm1Fee *decimal.Decimal `json:"fee_structure_term1_fee"`
	FeeStructureTerm2Fee *decimal.Decimal `json:"fee_structure_term2_fee"`
	FeeStructureTerm3Fee *decimal.Decimal `json:"fee_structure_term3_fee"`

	FeeStructureNote *string `json:"fee_structure_note"`
}

func (r *CreateFeeStructureRequest) ToModel() *model.FeeStructure {
	return &model.FeeStructure{
		FeeStructureCourse:       strings.TrimSpace(r.FeeStructureCourse),
		FeeStructureYear:         r.FeeStructureYear,
		FeeStructureAcademicYear: strings.TrimSpace(r.FeeStructureAcademicYear),
		FeeStructureBranch:       trimPtr(r.FeeStructureBranch),
		FeeStructureHostelID:     r.FeeStructureHostelID,
		FeeStructureCategoryID:   r.FeeStructureCategoryID,
		FeeStructureCategory:     trimPtr(r.FeeStructureCategory),
		FeeStructureTotalFee:     r.FeeStructureTotalFee,
		FeeStructureTerm1Fee:     r.FeeStructureTerm1Fee,
		FeeStructureTerm2Fee:     r.FeeStructureTerm2Fee,
		FeeStructureTerm3Fee:     r.FeeStructureTerm3Fee,
		FeeStructureNote:         trimPtr(r.FeeStructureNote),
	}
}

/* =========================================================
   REQUEST: Patch
========================================================= */

type PatchFeeStructureRequest struct {
	FeeStructureBranch     PatchField[string]    `json:"fee_structure_branch"`
	FeeStructureHostelID   PatchField[uuid.UUID] `json:"fee_structure_hostel_id"`
	FeeStructureCategoryID PatchField[uuid.UUID] `json:"fee_structure_category_id"`
	FeeStructureCategory   PatchField[string]    `json:"fee_structure_category"`

	FeeStructureTotalFee *decimal.Decimal           `json:"fee_structure_total_fee"`
	FeeStructureTerm1Fee PatchField[decimal.Decimal] `json:"fee_structure_term1_fee"`
	FeeStructureTerm2Fee PatchField[decimal.Decimal] `json:"fee_structure_term2_fee"`
	FeeStructureTerm3Fee PatchField[decimal.Decimal] `json:"fee_structure_term3_fee"`

	FeeStructureNote PatchField[string] `json:"fee_structure_note"`
}

// ApplyTo mutates fs. Course, year and academic year are immutable: a different
// cohort is a different structure.
func (r *PatchFeeStructureRequest) ApplyTo(fs *model.FeeStructure) {
	applyPtr(r.FeeStructureBranch, &fs.FeeStructureBranch)
	fs.FeeStructureBranch = trimPtr(fs.FeeStructureBranch)
	applyPtr(r.FeeStructureHostelID, &fs.FeeStructureHostelID)
	applyPtr(r.FeeStructureCategoryID, &fs.FeeStructureCategoryID)
	applyPtr(r.FeeStructureCategory, &fs.FeeStructureCategory)
	fs.FeeStructureCategory = trimPtr(fs.FeeStructureCategory)

	if r.FeeStructureTotalFee != nil {
		fs.FeeStructureTotalFee = *r.FeeStructureTotalFee
	}
	applyPtr(r.FeeStructureTerm1Fee, &fs.FeeStructureTerm1Fee)
	applyPtr(r.FeeStructureTerm2Fee, &fs.FeeStructureTerm2Fee)
	applyPtr(r.FeeStructureTerm3Fee, &fs.FeeStructureTerm3Fee)
	applyPtr(r.FeeStructureNote, &fs.FeeStructureNote)
}

// AmountProblems checks the money fields that validator tags cannot express.
func AmountProblems(fs *model.FeeStructure) map[string][]string {
	out := map[string][]string{}
	if !fs.FeeStructureTotalFee.IsPositive() {
		out["fee_structure_total_fee"] = append(out["fee_structure_total_fee"], "gt")
	}
	terms := []struct {
		key string
		v   *decimal.Decimal
	}{
		{"fee_structure_term1_fee", fs.FeeStructureTerm1Fee},
		{"fee_structure_term2_fee", fs.FeeStructureTerm2Fee},
		{"fee_structure_term3_fee", fs.FeeStructureTerm3Fee},
	}
	for _, t := range terms {
		if t.v != nil && t.v.IsNegative() {
			out[t.key] = append(out[t.key], "gte")
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

/* =========================================================
   REQUEST: Resolve (dry run)
========================================================= */

// ResolveRequest identifies a student either by id or by inline attributes.
type ResolveRequest struct {
	StudentID *uuid.UUID `json:"student_id"`

	Course         string     `json:"course" validate:"required_without=StudentID"`
	Year           int        `json:"year" validate:"required_without=StudentID"`
	AcademicYear   string     `json:"academic_year" validate:"required_without=StudentID"`
	Branch         *string    `json:"branch"`
	HostelID       *uuid.UUID `json:"hostel_id"`
	Category       *string    `json:"category"`
	HostelCategory *string    `json:"hostel_category"`
}

/* =========================================================
   RESPONSE
========================================================= */

type FeeStructureResponse struct {
	FeeStructureID           uuid.UUID        `json:"fee_structure_id"`
	FeeStructureCourse       string           `json:"fee_structure_course"`
	FeeStructureYear         int              `json:"fee_structure_year"`
	FeeStructureAcademicYear string           `json:"fee_structure_academic_year"`
	FeeStructureBranch       *string          `json:"fee_structure_branch,omitempty"`
	FeeStructureHostelID     *uuid.UUID       `json:"fee_structure_hostel_id,omitempty"`
	FeeStructureCategoryID   *uuid.UUID       `json:"fee_structure_category_id,omitempty"`
	FeeStructureCategory     *string          `json:"fee_structure_category,omitempty"`
	FeeStructureTotalFee     decimal.Decimal  `json:"fee_structure_total_fee"`
	FeeStructureTerm1Fee     *decimal.Decimal `json:"fee_structure_term1_fee,omitempty"`
	FeeStructureTerm2Fee     *decimal.Decimal `json:"fee_structure_term2_fee,omitempty"`
	FeeStructureTerm3Fee     *decimal.Decimal `json:"fee_structure_term3_fee,omitempty"`
	FeeStructureNote         *string          `json:"fee_structure_note,omitempty"`
	FeeStructureCreatedAt    time.Time        `json:"fee_structure_created_at"`
	FeeStructureUpdatedAt    time.Time        `json:"fee_structure_updated_at"`
}

func FromModel(fs *model.FeeStructure) FeeStructureResponse {
	return FeeStructureResponse{
		FeeStructureID:           fs.FeeStructureID,
		FeeStructureCourse:       fs.FeeStructureCourse,
		FeeStructureYear:         fs.FeeStructureYear,
		FeeStructureAcademicYear: fs.FeeStructureAcademicYear,
		FeeStructureBranch:       fs.FeeStructureBranch,
		FeeStructureHostelID:     fs.FeeStructureHostelID,
		FeeStructureCategoryID:   fs.FeeStructureCategoryID,
		FeeStructureCategory:     fs.FeeStructureCategory,
		FeeStructureTotalFee:     fs.FeeStructureTotalFee,
		FeeStructureTerm1Fee:     fs.FeeStructureTerm1Fee,
		FeeStructureTerm2Fee:     fs.FeeStructureTerm2Fee,
		FeeStructureTerm3Fee:     fs.FeeStructureTerm3Fee,
		FeeStructureNote:         fs.FeeStructureNote,
		FeeStructureCreatedAt:    fs.FeeStructureCreatedAt,
		FeeStructureUpdatedAt:    fs.FeeStructureUpdatedAt,
	}
}

func FromModels(rows []model.FeeStructure) []FeeStructureResponse {
	out := make([]FeeStructureResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

type CandidateResponse struct {
	FeeStructureID uuid.UUID `json:"fee_structure_id"`
	Score          int       `json:"score"`
	CatalogIndex   int       `json:"catalog_index"`
}

type ResolveResponse struct {
	Configured       bool                  `json:"fee_structure_configured"`
	NormalizedCourse string                `json:"normalized_course"`
	FeeStructure     *FeeStructureResponse `json:"fee_structure,omitempty"`
	RequiredPerTerm  []decimal.Decimal     `json:"required_per_term,omitempty"`
	Candidates       []CandidateResponse   `json:"candidates"`
	Ambiguous        bool                  `json:"ambiguous"`
}

package service

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hostelfee_backend/internals/features/finance/fee_structures/model"
	studentModel "hostelfee_backend/internals/features/students/model"
	helper "hostelfee_backend/internals/helpers"
)

/* =======================================================
   COURSE NAME NORMALIZATION
======================================================= */

// CourseLookup maps a legacy course identifier to its canonical course name.
type CourseLookup map[string]string

func BuildCourseLookup(courses []model.Course) CourseLookup {
	out := make(CourseLookup, len(courses))
	for _, c := range courses {
		name := strings.TrimSpace(c.CourseName)
		if name == "" {
			continue
		}
		for _, id := range c.CourseLegacyIDs {
			if id = strings.TrimSpace(id); id != "" {
				out[id] = name
			}
		}
	}
	return out
}

// NormalizeCourseName resolves a legacy identifier through lookup; anything it
// cannot resolve comes back trimmed but otherwise untouched.
func NormalizeCourseName(raw string, lookup CourseLookup) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if name, ok := lookup[trimmed]; ok {
		return name
	}
	return trimmed
}


/* =======================================================
   DISCRIMINATORS
======================================================= */

// Discriminator is either Unconstrained (matches everyone) or Constrained to a set
// of accepted values (already folded).
type Discriminator struct {
	constrained bool
	accepted    []string
}

func Unconstrained() Discriminator { return Discriminator{} }

func Constrained(values ...string) Discriminator {
	d := Discriminator{constrained: true}
	for _, v := range values {
		if f := helper.FoldName(v); f != "" {
			d.accepted = append(d.accepted, f)
		}
	}
	return d
}

func (d Discriminator) IsConstrained() bool { return d.constrained }

// Match returns whether the student value satisfies d, and 1 when it did so by
// matching a constraint (the specificity contribution).
func (d Discriminator) Match(studentValue *string) (bool, int) {
	if !d.constrained {
		return true, 0
	}
	if studentValue == nil {
		return false, 0
	}
	v := helper.FoldName(*studentValue)
	if v == "" {
		return false, 0
	}
	for _, a := range d.accepted {
		if a == v {
			return true, 1
		}
	}
	return false, 0
}

/* =======================================================
   RESOLVER
======================================================= */

type Resolver struct {
	courses    CourseLookup
	categories map[uuid.UUID]model.FeeCategory
	log        logrus.FieldLogger
}

func NewResolver(courses []model.Course, categories []model.FeeCategory, log logrus.FieldLogger) *Resolver {
	cats := make(map[uuid.UUID]model.FeeCategory, len(categories))
	for _, c := range categories {
		cats[c.FeeCategoryID] = c
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{courses: BuildCourseLookup(courses), categories: cats, log: log}
}

func (r *Resolver) NormalizeCourse(raw string) string {
	return NormalizeCourseName(raw, r.courses)
}

// CourseKey is the folded canonical course; equal keys match the same structures.
func (r *Resolver) CourseKey(raw string) string {
	return helper.FoldName(r.NormalizeCourse(raw))
}

// Candidate is a fee structure that passed both match stages.
type Candidate struct {
	Structure *model.FeeStructure
	Score     int // constrained-and-matched discriminators
	Index     int // position in the catalog
}

func (r *Resolver) branchOf(fs *model.FeeStructure) Discriminator {
	if fs.FeeStructureBranch == nil || strings.TrimSpace(*fs.FeeStructureBranch) == "" {
		return Unconstrained()
	}
	return Constrained(*fs.FeeStructureBranch)
}

func (r *Resolver) hostelOf(fs *model.FeeStructure) Discriminator {
	if fs.FeeStructureHostelID == nil || *fs.FeeStructureHostelID == uuid.Nil {
		return Unconstrained()
	}
	return Constrained(fs.FeeStructureHostelID.String())
}

// categoryOf prefers category_id (resolved to name or code); the legacy string is
// only consulted when no category_id is set.
func (r *Resolver) categoryOf(fs *model.FeeStructure) Discriminator {
	if fs.FeeStructureCategoryID != nil && *fs.FeeStructureCategoryID != uuid.Nil {
		cat, ok := r.categories[*fs.FeeStructureCategoryID]
		if !ok {
			return Constrained(fs.FeeStructureCategoryID.String())
		}
		values := []string{cat.FeeCategoryName}
		if cat.FeeCategoryCode != nil {
			values = append(values, *cat.FeeCategoryCode)
		}
		return Constrained(values...)
	}
	if fs.FeeStructureCategory != nil && strings.TrimSpace(*fs.FeeStructureCategory) != "" {
		return Constrained(*fs.FeeStructureCategory)
	}
	return Unconstrained()
}

func studentCategory(st *studentModel.Student) *string {
	if st.StudentCategory != nil && strings.TrimSpace(*st.StudentCategory) != "" {
		return st.StudentCategory
	}
	return st.StudentHostelCategory
}

func studentHostel(st *studentModel.Student) *string {
	if st.StudentHostelID == nil || *st.StudentHostelID == uuid.Nil {
		return nil
	}
	s := st.StudentHostelID.String()
	return &s
}

// Match runs the fine-match stage for one structure. Year is mandatory and exact.
func (r *Resolver) Match(st *studentModel.Student, fs *model.FeeStructure) (bool, int) {
	if fs.FeeStructureYear != st.StudentYear {
		return false, 0
	}
	score := 0
	checks := []struct {
		d Discriminator
		v *string
	}{
		{r.branchOf(fs), st.StudentBranch},
		{r.hostelOf(fs), studentHostel(st)},
		{r.categoryOf(fs), studentCategory(st)},
	}
	for _, c := range checks {
		ok, s := c.d.Match(c.v)
		if !ok {
			return false, 0
		}
		score += s
	}
	return true, score
}

// Candidates returns every matching structure, most specific first, ties in catalog order.
func (r *Resolver) Candidates(st *studentModel.Student, catalog []model.FeeStructure) []Candidate {
	course := r.CourseKey(st.StudentCourse)
	year := strings.TrimSpace(st.StudentAcademicYear)

	var out []Candidate
	for i := range catalog {
		fs := &catalog[i]
		if strings.TrimSpace(fs.FeeStructureAcademicYear) != year {
			continue
		}
		if r.CourseKey(fs.FeeStructureCourse) != course {
			continue
		}
		if ok, score := r.Match(st, fs); ok {
			out = append(out, Candidate{Structure: fs, Score: score, Index: i})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].Index < out[b].Index
	})
	return out
}

// Resolve picks the applicable structure. Several equally specific matches mean the
// catalog violates its partition invariant: the first in catalog order wins and the
// conflict is logged.
func (r *Resolver) Resolve(st *studentModel.Student, catalog []model.FeeStructure) (*model.FeeStructure, bool) {
	cands := r.Candidates(st, catalog)
	if len(cands) == 0 {
		return nil, false
	}
	if len(cands) > 1 && cands[1].Score == cands[0].Score {
		ids := make([]string, 0, len(cands))
		for _, c := range cands {
			if c.Score == cands[0].Score {
				ids = append(ids, c.Structure.FeeStructureID.String())
			}
		}
		r.log.WithFields(logrus.Fields{
			"student_id":    st.StudentID.String(),
			"course":        st.StudentCourse,
			"academic_year": st.StudentAcademicYear,
			"year":          st.StudentYear,
			"candidates":    ids,
			"picked":        cands[0].Structure.FeeStructureID.String(),
		}).Warn("[FEE-STRUCTURE] ambiguous match, data-integrity issue")
	}
	return cands[0].Structure, true
}

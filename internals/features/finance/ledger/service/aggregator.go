package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	dueDateService "hostelfee_backend/internals/features/finance/due_dates/service"
	feeService "hostelfee_backend/internals/features/finance/fee_structures/service"
	paymentModel "hostelfee_backend/internals/features/finance/payments/model"
	studentModel "hostelfee_backend/internals/features/students/model"
	"hostelfee_backend/internals/helpers/dbtime"
)

const DefaultConcurrency = 8

// CatalogLoader returns the fee structure snapshot for an academic year.
type CatalogLoader interface {
	Load(ctx context.Context, academicYear string) (*feeService.Snapshot, error)
}

// DueDateResolver returns nil when the key has no due-date configuration.
type DueDateResolver interface {
	ResolveDueDates(ctx context.Context, course, academicYear string, yearOfStudy int) (*dueDateService.TermDueDates, error)
}

/* =======================================================
   RESULT TYPES
======================================================= */

// TermPosition is one term as seen on asOf. RawBalance is never altered by gating.
type TermPosition struct {
	Term              paymentModel.Term `json:"term"`
	DueDate           *time.Time        `json:"due_date,omitempty"`
	IsDue             bool              `json:"is_due"`
	RawBalance        decimal.Decimal   `json:"raw_balance"`
	Balance           decimal.Decimal   `json:"balance"`
	LateFee           decimal.Decimal   `json:"late_fee"`
	ConfiguredLateFee *decimal.Decimal  `json:"configured_late_fee,omitempty"`
}

type StudentPosition struct {
	Student                *studentModel.Student `json:"student"`
	FeeStructureConfigured bool                  `json:"fee_structure_configured"`
	DueDatesConfigured     bool                  `json:"due_dates_configured"`
	Balance                *Balance              `json:"balance,omitempty"` // raw, ungated
	Terms                  [3]TermPosition       `json:"terms"`
	TotalDue               decimal.Decimal       `json:"total_due"`
}

// Totals drive the cohort KPIs. Due amounts are gated; RawBalance is not.
type Totals struct {
	TotalDue   decimal.Decimal `json:"total_due"`
	Term1Due   decimal.Decimal `json:"term1_due"`
	Term2Due   decimal.Decimal `json:"term2_due"`
	Term3Due   decimal.Decimal `json:"term3_due"`
	RawBalance decimal.Decimal `json:"raw_balance"`
	LateFee    decimal.Decimal `json:"late_fee"`

	Students              int `json:"students"`
	WithStructure         int `json:"with_structure"`
	WithoutStructure      int `json:"without_structure"`
	FullyPaid             int `json:"fully_paid"`
	DueDateKeys           int `json:"due_date_keys"`
	DueDateLookupFailures int `json:"due_date_lookup_failures"`
}

type AggregateResult struct {
	AsOf       time.Time         `json:"as_of"`
	PerStudent []StudentPosition `json:"per_student"`
	Totals     Totals            `json:"totals"`
}

/* =======================================================
   GATING
======================================================= */

// GateBalance applies due dates to a raw balance. With dd == nil every term is due.
// A term becomes due on its due date itself.
func GateBalance(b *Balance, dd *dueDateService.TermDueDates, asOf time.Time) [3]TermPosition {
	var out [3]TermPosition
	for i, term := range paymentModel.Terms {
		tp := TermPosition{Term: term, IsDue: true}
		if b != nil {
			tp.RawBalance = b.Terms[i].Balance
			tp.LateFee = b.Terms[i].LateFee
		}
		if dd != nil {
			due := dd.Dates[i]
			tp.DueDate = &due
			tp.ConfiguredLateFee = dd.LateFees[i]
			tp.IsDue = !dbtime.CivilBefore(asOf, due)
		}
		if tp.IsDue {
			tp.Balance = tp.RawBalance
		} else {
			tp.Balance = decimal.Zero
		}
		out[i] = tp
	}
	return out
}

/* =======================================================
   AGGREGATOR
======================================================= */

// Aggregator is stateless apart from its collaborators; Aggregate never mutates
// the students or payments it is given.
type Aggregator struct {
	Catalog     CatalogLoader
	DueDates    DueDateResolver
	Concurrency int
	Log         logrus.FieldLogger
}

func NewAggregator(catalog CatalogLoader, dueDates DueDateResolver, concurrency int, log logrus.FieldLogger) *Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Aggregator{Catalog: catalog, DueDates: dueDates, Concurrency: concurrency, Log: log}
}

type cohortKey struct {
	course       string
	academicYear string
	year         int
}

type dueDateOutcome struct {
	dd     *dueDateService.TermDueDates
	failed bool
}

// Aggregate computes every student's raw and gated position for asOf.
// Per-student output keeps the input order.
func (a *Aggregator) Aggregate(ctx context.Context, students []studentModel.Student, payments []paymentModel.Payment, asOf time.Time) (*AggregateResult, error) {
	snapshots, err := a.loadCatalogs(ctx, students)
	if err != nil {
		return nil, err
	}

	byStudent := make(map[string][]paymentModel.Payment, len(students))
	for _, p := range payments {
		k := p.PaymentStudentID.String()
		byStudent[k] = append(byStudent[k], p)
	}

	res := &AggregateResult{AsOf: asOf, PerStudent: make([]StudentPosition, len(students))}
	keys := make([]cohortKey, len(students))
	distinct := map[cohortKey]*dueDateOutcome{}

	for i := range students {
		st := &students[i]
		pos := StudentPosition{Student: st}

		snap := snapshots[strings.TrimSpace(st.StudentAcademicYear)]
		if fs, ok := snap.Resolve(st); ok {
			pos.FeeStructureConfigured = true
			pos.Balance = ComputeBalance(st, fs, byStudent[st.StudentID.String()])

			key := cohortKey{
				course:       snap.Resolver.CourseKey(st.StudentCourse),
				academicYear: strings.TrimSpace(st.StudentAcademicYear),
				year:         st.StudentYear,
			}
			keys[i] = key
			if _, seen := distinct[key]; !seen {
				distinct[key] = &dueDateOutcome{}
			}
		}
		res.PerStudent[i] = pos
	}

	if err := a.resolveDueDates(ctx, distinct); err != nil {
		return nil, err
	}

	t := &res.Totals
	t.Students = len(students)
	t.DueDateKeys = len(distinct)
	for i := range res.PerStudent {
		pos := &res.PerStudent[i]
		if !pos.FeeStructureConfigured {
			t.WithoutStructure++
			pos.Terms = GateBalance(nil, nil, asOf)
			continue
		}
		out := distinct[keys[i]]
		pos.DueDatesConfigured = out.dd != nil
		pos.Terms = GateBalance(pos.Balance, out.dd, asOf)

		t.WithStructure++
		if pos.Balance.IsFullyPaid {
			t.FullyPaid++
		}
		t.RawBalance = t.RawBalance.Add(pos.Balance.TotalBalance)
		t.LateFee = t.LateFee.Add(pos.Balance.TotalLateFee)

		pos.TotalDue = decimal.Zero
		for j, tp := range pos.Terms {
			pos.TotalDue = pos.TotalDue.Add(tp.Balance)
			switch j {
			case 0:
				t.Term1Due = t.Term1Due.Add(tp.Balance)
			case 1:
				t.Term2Due = t.Term2Due.Add(tp.Balance)
			case 2:
				t.Term3Due = t.Term3Due.Add(tp.Balance)
			}
		}
		t.TotalDue = t.TotalDue.Add(pos.TotalDue)
	}
	for _, out := range distinct {
		if out.failed {
			t.DueDateLookupFailures++
		}
	}
	return res, nil
}

// loadCatalogs fetches one snapshot per distinct academic year among students.
func (a *Aggregator) loadCatalogs(ctx context.Context, students []studentModel.Student) (map[string]*feeService.Snapshot, error) {
	out := map[string]*feeService.Snapshot{}
	for i := range students {
		ay := strings.TrimSpace(students[i].StudentAcademicYear)
		if _, ok := out[ay]; ok {
			continue
		}
		snap, err := a.Catalog.Load(ctx, ay)
		if err != nil {
			return nil, errors.Wrap(err, "aggregate")
		}
		out[ay] = snap
	}
	return out, nil
}

// resolveDueDates issues one lookup per distinct key with bounded concurrency.
// A failed lookup is logged and treated as "not configured".
func (a *Aggregator) resolveDueDates(ctx context.Context, distinct map[cohortKey]*dueDateOutcome) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Concurrency)

	var mu sync.Mutex
	for key, out := range distinct {
		key, out := key, out
		g.Go(func() error {
			dd, err := a.DueDates.ResolveDueDates(gctx, key.course, key.academicYear, key.year)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.failed = true
				a.Log.WithError(err).WithFields(logrus.Fields{
					"course":        key.course,
					"academic_year": key.academicYear,
					"year":          key.year,
				}).Warn("[AGGREGATE] due-date lookup failed; treating terms as due")
				return nil
			}
			out.dd = dd
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelfee_backend/internals/features/finance/ledger/service"
	paymentModel "hostelfee_backend/internals/features/finance/payments/model"
	studentModel "hostelfee_backend/internals/features/students/model"
	studentRepo "hostelfee_backend/internals/features/students/repository"
	helper "hostelfee_backend/internals/helpers"
	"hostelfee_backend/internals/helpers/logger"
)

type fakeStudents struct {
	rows  []studentModel.Student
	total int64

	mu         sync.Mutex
	statsCalls int
	lastFilter studentRepo.Filter
	lastParams helper.Params
}

func (f *fakeStudents) List(ctx context.Context, flt studentRepo.Filter, p helper.Params) ([]studentModel.Student, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter, f.lastParams = flt, p
	return f.rows, f.total, nil
}

func (f *fakeStudents) ListForStats(ctx context.Context, flt studentRepo.Filter, limit int) ([]studentModel.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	f.lastFilter = flt
	return f.rows, nil
}

func (f *fakeStudents) FindByID(ctx context.Context, id uuid.UUID) (*studentModel.Student, error) {
	for i := range f.rows {
		if f.rows[i].StudentID == id {
			st := f.rows[i]
			return &st, nil
		}
	}
	return nil, studentRepo.ErrStudentNotFound
}

type fakePayments struct {
	byStudentYear string
	cohortIDs     []uuid.UUID
}

func (f *fakePayments) ListByStudent(ctx context.Context, id uuid.UUID, academicYear string) ([]paymentModel.Payment, error) {
	f.byStudentYear = academicYear
	return nil, nil
}

func (f *fakePayments) ListCohort(ctx context.Context, academicYear string, ids []uuid.UUID, limit int) ([]paymentModel.Payment, error) {
	f.cohortIDs = ids
	return nil, nil
}

// echoAggregator returns one empty position per student.
type echoAggregator struct {
	seen []studentModel.Student
}

func (a *echoAggregator) Aggregate(ctx context.Context, students []studentModel.Student, payments []paymentModel.Payment, asOf time.Time) (*service.AggregateResult, error) {
	a.seen = students
	res := &service.AggregateResult{AsOf: asOf, PerStudent: make([]service.StudentPosition, len(students))}
	for i := range students {
		res.PerStudent[i] = service.StudentPosition{Student: &students[i]}
	}
	res.Totals.Students = len(students)
	return res, nil
}

type scriptedRecomputer struct {
	stale int
	reqs  []service.Request
}

func (r *scriptedRecomputer) Run(ctx context.Context, req service.Request) (*service.Computation, error) {
	r.reqs = append(r.reqs, req)
	if len(r.reqs) <= r.stale {
		return nil, service.ErrStaleComputation
	}
	return &service.Computation{
		Token:  uint64(len(r.reqs)),
		Result: &service.AggregateResult{AsOf: req.AsOf, Totals: service.Totals{Students: len(req.Students)}},
	}, nil
}

var ledgerNow = time.Date(2025, 9, 15, 11, 0, 0, 0, time.UTC)

func newLedgerApp(students *fakeStudents, payments *fakePayments, agg *echoAggregator, rc *scriptedRecomputer) *fiber.App {
	ctl := NewLedgerController(students, payments, agg, rc, logger.Discard())
	ctl.Now = func() time.Time { return ledgerNow }
	ctl.StudentLimit = 100

	app := fiber.New()
	app.Get("/students/:id/balance", ctl.StudentBalance)
	app.Get("/ledger/students", ctl.ListStudents)
	app.Get("/ledger/stats", ctl.Stats)
	return app
}

func sampleStudents(n int) []studentModel.Student {
	out := make([]studentModel.Student, n)
	for i := range out {
		out[i] = studentModel.Student{
			StudentID:           uuid.New(),
			StudentName:         "Student",
			StudentCourse:       "B.Tech",
			StudentYear:         1,
			StudentAcademicYear: "2025-2026",
			StudentStatus:       studentModel.StudentStatusActive,
		}
	}
	return out
}

func call(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestStats_RetriesOnceWhenSuperseded(t *testing.T) {
	students := &fakeStudents{rows: sampleStudents(3)}
	rc := &scriptedRecomputer{stale: 1}
	app := newLedgerApp(students, &fakePayments{}, &echoAggregator{}, rc)

	status, body := call(t, app, "/ledger/stats?academic_year=2025-2026&as_of=2025-10-01")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, rc.reqs, 2)
	assert.Equal(t, 2, students.statsCalls, "inputs are read again for the retry")

	data := body["data"].(map[string]any)
	assert.Equal(t, "2025-10-01", data["as_of"])
	assert.Equal(t, float64(3), data["totals"].(map[string]any)["students"])
}

func TestStats_ConflictWhenStillSuperseded(t *testing.T) {
	rc := &scriptedRecomputer{stale: 5}
	app := newLedgerApp(&fakeStudents{rows: sampleStudents(1)}, &fakePayments{}, &echoAggregator{}, rc)

	status, body := call(t, app, "/ledger/stats")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", body["error_code"])
	assert.Len(t, rc.reqs, 2)
}

func TestStats_FilterKeyCarriesFiltersAndAsOf(t *testing.T) {
	rc := &scriptedRecomputer{}
	app := newLedgerApp(&fakeStudents{rows: sampleStudents(2)}, &fakePayments{}, &echoAggregator{}, rc)

	status, _ := call(t, app, "/ledger/stats?course=B.Tech&year=2&category=General")
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, rc.reqs, 1)

	req := rc.reqs[0]
	assert.Contains(t, req.FilterKey, "course=b.tech")
	assert.Contains(t, req.FilterKey, "year=2")
	assert.Contains(t, req.FilterKey, "as_of=2025-09-15")
	assert.Equal(t, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), req.AsOf)
}

func TestStats_RejectsBadFilters(t *testing.T) {
	app := newLedgerApp(&fakeStudents{}, &fakePayments{}, &echoAggregator{}, &scriptedRecomputer{})

	status, _ := call(t, app, "/ledger/stats?year=zero")
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = call(t, app, "/ledger/stats?hostel_id=nope")
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = call(t, app, "/ledger/stats?as_of=15-09-2025")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestStudentBalance_UnknownStudent(t *testing.T) {
	app := newLedgerApp(&fakeStudents{}, &fakePayments{}, &echoAggregator{}, &scriptedRecomputer{})

	status, _ := call(t, app, "/students/"+uuid.NewString()+"/balance")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = call(t, app, "/students/not-a-uuid/balance")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestStudentBalance_PastAcademicYear(t *testing.T) {
	students := &fakeStudents{rows: sampleStudents(1)}
	override := decimal.NewFromInt(10000)
	students.rows[0].StudentCalculatedTerm1Fee = &override
	students.rows[0].StudentConcession = decimal.NewFromInt(2000)
	students.rows[0].StudentTerm1LateFee = decimal.NewFromInt(500)
	payments := &fakePayments{}
	agg := &echoAggregator{}
	app := newLedgerApp(students, payments, agg, &scriptedRecomputer{})

	id := students.rows[0].StudentID
	status, body := call(t, app, "/students/"+id.String()+"/balance?academic_year=2024-2025")
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, "2024-2025", payments.byStudentYear)
	require.Len(t, agg.seen, 1)
	past := agg.seen[0]
	assert.Equal(t, "2024-2025", past.StudentAcademicYear)
	assert.Nil(t, past.StudentCalculatedTerm1Fee, "overrides belong to the current year")
	assert.True(t, past.StudentConcession.IsZero())
	assert.True(t, past.StudentTerm1LateFee.IsZero())

	assert.Equal(t, "2025-2026", students.rows[0].StudentAcademicYear)
	assert.NotNil(t, students.rows[0].StudentCalculatedTerm1Fee)

	data := body["data"].(map[string]any)
	assert.Equal(t, "2025-09-15", data["as_of"])
	assert.Equal(t, false, data["fee_structure_configured"])
}

func TestListStudents_PaginatesAndLoadsPagePayments(t *testing.T) {
	students := &fakeStudents{rows: sampleStudents(2), total: 5}
	payments := &fakePayments{}
	app := newLedgerApp(students, payments, &echoAggregator{}, &scriptedRecomputer{})

	status, body := call(t, app, "/ledger/students?page=2&per_page=2&academic_year=2025-2026")
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, 2, students.lastParams.Page)
	assert.Equal(t, 2, students.lastParams.PerPage)
	assert.Equal(t, []uuid.UUID{students.rows[0].StudentID, students.rows[1].StudentID}, payments.cohortIDs)

	assert.Len(t, body["data"].([]any), 2)
	pg := body["pagination"].(map[string]any)
	assert.Equal(t, float64(5), pg["total"])
	assert.Equal(t, float64(3), pg["total_pages"])
	assert.Equal(t, true, pg["has_next"])
}

package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelfee_backend/internals/features/finance/due_dates/model"
	"hostelfee_backend/internals/features/finance/due_dates/repository"
	"hostelfee_backend/internals/features/finance/due_dates/service"
	"hostelfee_backend/internals/helpers/cache"
	"hostelfee_backend/internals/helpers/logger"
)

// dueDateStore backs both the controller and the resolver so a write is visible
// to the next uncached lookup.
type dueDateStore struct {
	rows      map[string]model.TermDueDate
	finds     int
	upsertErr error
}

func newDueDateStore() *dueDateStore {
	return &dueDateStore{rows: map[string]model.TermDueDate{}}
}

func (s *dueDateStore) key(course, academicYear string, year int) string {
	return service.CacheKey(course, academicYear, year)
}

func (s *dueDateStore) Find(ctx context.Context, course, academicYear string, year int) (*model.TermDueDate, error) {
	s.finds++
	row, ok := s.rows[s.key(course, academicYear, year)]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *dueDateStore) List(ctx context.Context, f repository.ListFilter) ([]model.TermDueDate, error) {
	var out []model.TermDueDate
	for _, r := range s.rows {
		out = append(out, r)
	}
	return out, nil
}

func (s *dueDateStore) Upsert(ctx context.Context, row *model.TermDueDate) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.rows[s.key(row.TermDueDateCourse, row.TermDueDateAcademicYear, row.TermDueDateYearOfStudy)] = *row
	return nil
}

func newDueDateApp(store *dueDateStore, changed *[]string) (*fiber.App, *service.Resolver) {
	resolver := service.NewResolver(store, cache.NewMemory[*service.TermDueDates](), time.Hour, logger.Discard())
	ctl := NewTermDueDateController(store, resolver, logger.Discard())
	ctl.Changed = func(ay string) { *changed = append(*changed, ay) }

	app := fiber.New()
	app.Get("/term-due-dates", ctl.List)
	app.Put("/term-due-dates", ctl.Upsert)
	return app, resolver
}

func put(t *testing.T, app *fiber.App, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPut, "/term-due-dates", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

const julyDates = `{"term_due_date_course":"B.Tech","term_due_date_academic_year":"2025-2026","term_due_date_year_of_study":1,
	"term_due_date_term1":"2025-07-15","term_due_date_term2":"2025-11-15","term_due_date_term3":"2026-03-15"}`

func TestUpsert_EvictsCachedAnswerAndNotifies(t *testing.T) {
	store := newDueDateStore()
	var changed []string
	app, resolver := newDueDateApp(store, &changed)
	ctx := context.Background()

	dd, err := resolver.ResolveDueDates(ctx, "B.Tech", "2025-2026", 1)
	require.NoError(t, err)
	assert.Nil(t, dd, "not configured yet")

	status, body := put(t, app, julyDates)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "2025-07-15", body["data"].(map[string]any)["term_due_date_term1"])
	assert.Equal(t, []string{"2025-2026"}, changed)

	dd, err = resolver.ResolveDueDates(ctx, "b.tech", "2025-2026", 1)
	require.NoError(t, err)
	require.NotNil(t, dd, "the cached 'not configured' answer was dropped")
	assert.Equal(t, time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC), dd.Dates[1])
	assert.Equal(t, 2, store.finds)
}

func TestUpsert_ReplacesEarlierDates(t *testing.T) {
	store := newDueDateStore()
	var changed []string
	app, resolver := newDueDateApp(store, &changed)
	ctx := context.Background()

	status, _ := put(t, app, julyDates)
	require.Equal(t, fiber.StatusOK, status)
	_, err := resolver.ResolveDueDates(ctx, "B.Tech", "2025-2026", 1)
	require.NoError(t, err)

	status, _ = put(t, app, strings.Replace(julyDates, "2025-07-15", "2025-08-01", 1))
	require.Equal(t, fiber.StatusOK, status)

	dd, err := resolver.ResolveDueDates(ctx, "B.Tech", "2025-2026", 1)
	require.NoError(t, err)
	require.NotNil(t, dd)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), dd.Dates[0])
	assert.Len(t, changed, 2)
}

func TestUpsert_OutOfOrderDatesAreRejected(t *testing.T) {
	store := newDueDateStore()
	var changed []string
	app, _ := newDueDateApp(store, &changed)

	status, body := put(t, app, strings.Replace(julyDates, "2026-03-15", "2025-10-01", 1))
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	errs := body["errors"].(map[string]any)
	assert.Equal(t, []any{"after_term2"}, errs["term_due_date_term3"])
	assert.Empty(t, store.rows)
	assert.Empty(t, changed)
}

func TestUpsert_StoreFailureKeepsCache(t *testing.T) {
	store := newDueDateStore()
	store.upsertErr = errors.New("db down")
	var changed []string
	app, resolver := newDueDateApp(store, &changed)

	_, err := resolver.ResolveDueDates(context.Background(), "B.Tech", "2025-2026", 1)
	require.NoError(t, err)

	status, body := put(t, app, julyDates)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.NotContains(t, body["message"], "db down")
	assert.Empty(t, changed)

	_, err = resolver.ResolveDueDates(context.Background(), "B.Tech", "2025-2026", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, store.finds)
}

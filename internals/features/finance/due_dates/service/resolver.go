package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"hostelfee_backend/internals/features/finance/due_dates/model"
	paymentModel "hostelfee_backend/internals/features/finance/payments/model"
	helper "hostelfee_backend/internals/helpers"
	"hostelfee_backend/internals/helpers/cache"
)

const DefaultTTL = 30 * time.Minute

// TermDueDates is the resolved due-date setup for a cohort key.
type TermDueDates struct {
	Dates    [3]time.Time
	LateFees [3]*decimal.Decimal
}

func (d *TermDueDates) DueDate(t paymentModel.Term) (time.Time, bool) {
	i := t.Index()
	if d == nil || i < 0 {
		return time.Time{}, false
	}
	return d.Dates[i], true
}

func FromModel(m *model.TermDueDate) *TermDueDates {
	if m == nil {
		return nil
	}
	return &TermDueDates{
		Dates:    [3]time.Time{m.TermDueDateTerm1, m.TermDueDateTerm2, m.TermDueDateTerm3},
		LateFees: [3]*decimal.Decimal{m.TermDueDateTerm1LateFee, m.TermDueDateTerm2LateFee, m.TermDueDateTerm3LateFee},
	}
}

// Source looks up due dates. A missing configuration is (nil, nil), not an error.
type Source interface {
	Find(ctx context.Context, course, academicYear string, yearOfStudy int) (*model.TermDueDate, error)
}

// CacheKey is course|academicYear|year with the course folded. Category is not
// part of the key.
func CacheKey(course, academicYear string, yearOfStudy int) string {
	return fmt.Sprintf("%s|%s|%d", helper.FoldName(course), strings.TrimSpace(academicYear), yearOfStudy)
}

// Resolver memoizes due-date lookups. Both configured and "not configured" answers
// are cached for ttl; failed lookups are not, so they are retried next time.
type Resolver struct {
	src   Source
	cache cache.Cache[*TermDueDates]
	ttl   time.Duration
	group singleflight.Group
	log   logrus.FieldLogger
}

func NewResolver(src Source, c cache.Cache[*TermDueDates], ttl time.Duration, log logrus.FieldLogger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{src: src, cache: c, ttl: ttl, log: log}
}

// ResolveDueDates returns nil when the key has no configuration.
func (r *Resolver) ResolveDueDates(ctx context.Context, course, academicYear string, yearOfStudy int) (*TermDueDates, error) {
	key := CacheKey(course, academicYear, yearOfStudy)
	if v, ok := r.cache.Get(key); ok {
		return v, nil
	}

	// Concurrent misses for the same key share one outbound lookup.
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		if v, ok := r.cache.Get(key); ok {
			return v, nil
		}
		row, err := r.src.Find(ctx, strings.TrimSpace(course), strings.TrimSpace(academicYear), yearOfStudy)
		if err != nil {
			return nil, errors.Wrapf(err, "due dates lookup %s", key)
		}
		dd := FromModel(row)
		r.cache.Add(key, dd, r.ttl)
		r.log.WithFields(logrus.Fields{"key": key, "configured": dd != nil}).Debug("[DUE-DATES] cached")
		return dd, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TermDueDates), nil
}

// Invalidate drops the cached answer for a key after its configuration changed.
func (r *Resolver) Invalidate(course, academicYear string, yearOfStudy int) int {
	want := CacheKey(course, academicYear, yearOfStudy)
	return r.cache.DeleteFunc(func(key string) bool {
		return key == want
	})
}

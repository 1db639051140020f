package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"hostelfee_backend/internals/features/finance/fee_structures/model"
	studentModel "hostelfee_backend/internals/features/students/model"
	"hostelfee_backend/internals/helpers/cache"
)

// Source is the fee structure data layer. ListByAcademicYear is deliberately not
// filtered by course or year so any student can be matched against the full set.
type Source interface {
	ListByAcademicYear(ctx context.Context, academicYear string) ([]model.FeeStructure, error)
	ListCourses(ctx context.Context) ([]model.Course, error)
	ListCategories(ctx context.Context) ([]model.FeeCategory, error)
}

// Snapshot is the immutable catalog for one academic year.
type Snapshot struct {
	AcademicYear string
	Structures   []model.FeeStructure
	Resolver     *Resolver
	LoadedAt     time.Time
}

func (s *Snapshot) Resolve(st *studentModel.Student) (*model.FeeStructure, bool) {
	return s.Resolver.Resolve(st, s.Structures)
}

// Catalog loads snapshots once per academic year and serves them from cache.
type Catalog struct {
	src   Source
	cache cache.Cache[*Snapshot]
	ttl   time.Duration
	group singleflight.Group
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewCatalog(src Source, c cache.Cache[*Snapshot], ttl time.Duration, log logrus.FieldLogger) *Catalog {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Catalog{src: src, cache: c, ttl: ttl, log: log, now: time.Now}
}

func (c *Catalog) Load(ctx context.Context, academicYear string) (*Snapshot, error) {
	key := strings.TrimSpace(academicYear)
	if snap, ok := c.cache.Get(key); ok {
		return snap, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if snap, ok := c.cache.Get(key); ok {
			return snap, nil
		}
		structures, err := c.src.ListByAcademicYear(ctx, key)
		if err != nil {
			return nil, errors.Wrapf(err, "load fee structures for %s", key)
		}
		courses, err := c.src.ListCourses(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "load courses")
		}
		categories, err := c.src.ListCategories(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "load fee categories")
		}

		snap := &Snapshot{
			AcademicYear: key,
			Structures:   structures,
			Resolver:     NewResolver(courses, categories, c.log),
			LoadedAt:     c.now(),
		}
		c.cache.Add(key, snap, c.ttl)
		c.log.WithFields(logrus.Fields{"academic_year": key, "structures": len(structures)}).Debug("[CATALOG] loaded")
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate drops the cached snapshot after a write to the catalog.
func (c *Catalog) Invalidate(academicYear string) {
	c.cache.Delete(strings.TrimSpace(academicYear))
}

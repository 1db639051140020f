package service

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	paymentModel "hostelfee_backend/internals/features/finance/payments/model"
	studentModel "hostelfee_backend/internals/features/students/model"
	"hostelfee_backend/internals/helpers/dbtime"
)

const DefaultDebounce = 2 * time.Second

// ErrStaleComputation means a newer run for the same filter started while this one
// was in flight; its result must not be applied.
var ErrStaleComputation = errors.New("computation superseded by newer inputs")

// Computer is the pure aggregation the coordinator schedules.
type Computer interface {
	Aggregate(ctx context.Context, students []studentModel.Student, payments []paymentModel.Payment, asOf time.Time) (*AggregateResult, error)
}

type Request struct {
	FilterKey string
	Students  []studentModel.Student
	Payments  []paymentModel.Payment
	AsOf      time.Time
}

type Computation struct {
	Token      uint64           `json:"token"`
	InputHash  string           `json:"input_hash"`
	Result     *AggregateResult `json:"result"`
	ComputedAt time.Time        `json:"computed_at"`
	Reused     bool             `json:"reused"`
}

type memo struct {
	hash uint64
	comp *Computation
	at   time.Time
}

// Coordinator sits in front of Aggregate. Identical consecutive requests inside the
// debounce window reuse the last result, identical concurrent requests share one run,
// and every run carries a monotonic token so superseded results can be dropped.
type Coordinator struct {
	computer Computer
	debounce time.Duration
	log      logrus.FieldLogger
	now      func() time.Time

	seq   atomic.Uint64
	group singleflight.Group

	mu     sync.Mutex
	last   map[string]memo
	latest map[string]uint64
}

func NewCoordinator(computer Computer, debounce time.Duration, log logrus.FieldLogger) *Coordinator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Coordinator{
		computer: computer,
		debounce: debounce,
		log:      log,
		now:      time.Now,
		last:     map[string]memo{},
		latest:   map[string]uint64{},
	}
}

// WithClock swaps the time source; used by tests.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

func (c *Coordinator) Run(ctx context.Context, req Request) (*Computation, error) {
	h := HashInputs(req)

	c.mu.Lock()
	if m, ok := c.last[req.FilterKey]; ok && m.hash == h && c.now().Sub(m.at) < c.debounce {
		c.mu.Unlock()
		reused := *m.comp
		reused.Reused = true
		return &reused, nil
	}
	c.mu.Unlock()

	v, err, shared := c.group.Do(fmt.Sprintf("%s#%016x", req.FilterKey, h), func() (interface{}, error) {
		token := c.seq.Add(1)
		c.mu.Lock()
		c.latest[req.FilterKey] = token
		c.mu.Unlock()

		res, err := c.computer.Aggregate(ctx, req.Students, req.Payments, req.AsOf)
		if err != nil {
			return nil, err
		}
		comp := &Computation{
			Token:      token,
			InputHash:  fmt.Sprintf("%016x", h),
			Result:     res,
			ComputedAt: c.now(),
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.latest[req.FilterKey] != token {
			c.log.WithFields(logrus.Fields{"filter": req.FilterKey, "token": token}).
				Info("[RECOMPUTE] result discarded, newer inputs in flight")
			return nil, ErrStaleComputation
		}
		c.last[req.FilterKey] = memo{hash: h, comp: comp, at: comp.ComputedAt}
		return comp, nil
	})
	if err != nil {
		return nil, err
	}
	comp := v.(*Computation)
	if shared {
		c.log.WithField("filter", req.FilterKey).Debug("[RECOMPUTE] joined in-flight run")
	}
	return comp, nil
}

// IsCurrent reports whether token belongs to the newest run started for filterKey.
func (c *Coordinator) IsCurrent(filterKey string, token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest[filterKey] == token
}

// Forget drops the memo for filterKey, e.g. after a payment was recorded.
func (c *Coordinator) Forget(filterKey string) {
	c.mu.Lock()
	delete(c.last, filterKey)
	c.mu.Unlock()
}

// ForgetAll drops every memo.
func (c *Coordinator) ForgetAll() {
	c.mu.Lock()
	c.last = map[string]memo{}
	c.mu.Unlock()
}

/* =======================================================
   INPUT HASH
======================================================= */

// HashInputs fingerprints everything Aggregate reads. Record order does not matter.
func HashInputs(req Request) uint64 {
	studentSums := make([]uint64, 0, len(req.Students))
	for i := range req.Students {
		studentSums = append(studentSums, hashStudent(&req.Students[i]))
	}
	paymentSums := make([]uint64, 0, len(req.Payments))
	for i := range req.Payments {
		paymentSums = append(paymentSums, hashPayment(&req.Payments[i]))
	}
	slices.Sort(studentSums)
	slices.Sort(paymentSums)

	h := fnv.New64a()
	writeStr(h, req.FilterKey)
	writeStr(h, req.AsOf.Format(dbtime.DateLayout))
	writeUints(h, studentSums)
	writeUints(h, paymentSums)
	return h.Sum64()
}

func hashStudent(st *studentModel.Student) uint64 {
	h := fnv.New64a()
	h.Write(st.StudentID[:])
	writeStr(h, st.StudentCourse)
	writeOpt(h, st.StudentBranch)
	writeInt(h, int64(st.StudentYear))
	writeStr(h, st.StudentAcademicYear)
	writeOpt(h, st.StudentCategory)
	writeOpt(h, st.StudentHostelCategory)
	if st.StudentHostelID != nil {
		h.Write(st.StudentHostelID[:])
	}
	writeStr(h, st.StudentConcession.String())
	for i := 0; i < 3; i++ {
		writeDecOpt(h, st.CalculatedTermFee(i))
		writeStr(h, st.LateFee(i).String())
	}
	writeDecOpt(h, st.StudentTotalCalculatedFee)
	return h.Sum64()
}

func hashPayment(p *paymentModel.Payment) uint64 {
	h := fnv.New64a()
	h.Write(p.PaymentID[:])
	h.Write(p.PaymentStudentID[:])
	writeStr(h, p.PaymentAcademicYear)
	writeStr(h, p.PaymentAmount.String())
	writeStr(h, string(p.PaymentType))
	if p.PaymentTerm != nil {
		writeStr(h, string(*p.PaymentTerm))
	} else {
		writeStr(h, "")
	}
	return h.Sum64()
}

// Fields are length-prefixed so adjacent values cannot collide by concatenation.
func writeStr(h hash.Hash64, s string) {
	writeInt(h, int64(len(s)))
	h.Write([]byte(s))
}

func writeOpt(h hash.Hash64, s *string) {
	if s == nil {
		writeInt(h, -1)
		return
	}
	writeStr(h, *s)
}

func writeDecOpt(h hash.Hash64, v *decimal.Decimal) {
	if v == nil {
		writeInt(h, -1)
		return
	}
	writeStr(h, v.String())
}

func writeInt(h hash.Hash64, v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	h.Write(buf[:])
}

func writeUints(h hash.Hash64, vs []uint64) {
	writeInt(h, int64(len(vs)))
	var buf [8]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
}

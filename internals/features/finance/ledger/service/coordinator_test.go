package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentModel "hostelfee_backend/internals/features/finance/payments/model"
	studentModel "hostelfee_backend/internals/features/students/model"
	"hostelfee_backend/internals/helpers/logger"
)

type computeFunc func(ctx context.Context, students []studentModel.Student, payments []paymentModel.Payment, asOf time.Time) (*AggregateResult, error)

func (f computeFunc) Aggregate(ctx context.Context, students []studentModel.Student, payments []paymentModel.Payment, asOf time.Time) (*AggregateResult, error) {
	return f(ctx, students, payments, asOf)
}

func countingComputer(calls *atomic.Int32) computeFunc {
	return func(ctx context.Context, students []studentModel.Student, payments []paymentModel.Payment, asOf time.Time) (*AggregateResult, error) {
		calls.Add(1)
		return &AggregateResult{AsOf: asOf, Totals: Totals{Students: len(students)}}, nil
	}
}

func sampleRequest() Request {
	a, b := cohortStudent("B.Tech", 1), cohortStudent("B.Tech", 1)
	return Request{
		FilterKey: "ay=2025-2026",
		Students:  []studentModel.Student{a, b},
		Payments:  []paymentModel.Payment{feePayment(&a, paymentModel.Term1, 1000)},
		AsOf:      day(2025, 9, 1),
	}
}

func TestHashInputs_OrderInsensitiveButFieldSensitive(t *testing.T) {
	req := sampleRequest()
	swapped := req
	swapped.Students = []studentModel.Student{req.Students[1], req.Students[0]}
	assert.Equal(t, HashInputs(req), HashInputs(swapped))

	changed := req
	changed.Students = append([]studentModel.Student(nil), req.Students...)
	changed.Students[0].StudentTerm2LateFee = d(100)
	assert.NotEqual(t, HashInputs(req), HashInputs(changed))

	later := req
	later.AsOf = day(2025, 9, 2)
	assert.NotEqual(t, HashInputs(req), HashInputs(later))

	morePayments := req
	morePayments.Payments = append([]paymentModel.Payment(nil), req.Payments...)
	morePayments.Payments = append(morePayments.Payments, feePayment(&req.Students[1], paymentModel.Term2, 10))
	assert.NotEqual(t, HashInputs(req), HashInputs(morePayments))
}

func TestCoordinator_IdenticalRequestsInsideWindowAreCollapsed(t *testing.T) {
	var calls atomic.Int32
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	c := NewCoordinator(countingComputer(&calls), 2*time.Second, logger.Discard()).
		WithClock(func() time.Time { return now })

	req := sampleRequest()
	first, err := c.Run(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Reused)

	now = now.Add(time.Second)
	second, err := c.Run(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(3 * time.Second)
	third, err := c.Run(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, third.Reused)
	assert.Greater(t, third.Token, first.Token)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCoordinator_ChangedInputsRecompute(t *testing.T) {
	var calls atomic.Int32
	c := NewCoordinator(countingComputer(&calls), time.Minute, logger.Discard())

	req := sampleRequest()
	_, err := c.Run(context.Background(), req)
	require.NoError(t, err)

	req.Payments = append(req.Payments, feePayment(&req.Students[1], paymentModel.Term1, 500))
	comp, err := c.Run(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, comp.Reused)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCoordinator_ForgetForcesRecompute(t *testing.T) {
	var calls atomic.Int32
	c := NewCoordinator(countingComputer(&calls), time.Minute, logger.Discard())
	req := sampleRequest()

	_, _ = c.Run(context.Background(), req)
	c.Forget(req.FilterKey)
	_, _ = c.Run(context.Background(), req)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCoordinator_ConcurrentIdenticalRequestsShareOneRun(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	slow := computeFunc(func(ctx context.Context, students []studentModel.Student, payments []paymentModel.Payment, asOf time.Time) (*AggregateResult, error) {
		calls.Add(1)
		<-release
		return &AggregateResult{}, nil
	})
	c := NewCoordinator(slow, time.Minute, logger.Discard())
	req := sampleRequest()

	var wg sync.WaitGroup
	tokens := make([]uint64, 8)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			comp, err := c.Run(context.Background(), req)
			assert.NoError(t, err)
			if comp != nil {
				tokens[i] = comp.Token
			}
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, tk := range tokens {
		assert.Equal(t, tokens[0], tk)
	}
}

func TestCoordinator_SupersededRunIsStale(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var first atomic.Bool
	first.Store(true)

	computer := computeFunc(func(ctx context.Context, students []studentModel.Student, payments []paymentModel.Payment, asOf time.Time) (*AggregateResult, error) {
		if first.CompareAndSwap(true, false) {
			close(started)
			<-release
		}
		return &AggregateResult{Totals: Totals{Students: len(students)}}, nil
	})
	c := NewCoordinator(computer, time.Minute, logger.Discard())

	oldReq := sampleRequest()
	newReq := oldReq
	newReq.Students = append([]studentModel.Student(nil), oldReq.Students...)
	newReq.Students = append(newReq.Students, cohortStudent("B.Tech", 1))

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Run(context.Background(), oldReq)
		errCh <- err
	}()
	<-started

	fresh, err := c.Run(context.Background(), newReq)
	require.NoError(t, err)
	assert.True(t, c.IsCurrent(newReq.FilterKey, fresh.Token))

	close(release)
	assert.ErrorIs(t, <-errCh, ErrStaleComputation)

	// The stale run never replaced the memo of the newer one.
	again, err := c.Run(context.Background(), newReq)
	require.NoError(t, err)
	assert.True(t, again.Reused)
	assert.Equal(t, 3, again.Result.Totals.Students)
}

func TestCoordinator_ErrorsAreNotMemoized(t *testing.T) {
	var calls atomic.Int32
	failing := computeFunc(func(ctx context.Context, students []studentModel.Student, payments []paymentModel.Payment, asOf time.Time) (*AggregateResult, error) {
		calls.Add(1)
		return nil, context.DeadlineExceeded
	})
	c := NewCoordinator(failing, time.Minute, logger.Discard())

	_, err := c.Run(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	_, err = c.Run(context.Background(), sampleRequest())
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

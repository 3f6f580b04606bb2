package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"custodian/internal/sentinel"
)

// ErrNotApplied lets a concurrent operation report that its state-conditioned
// write matched nothing.
var ErrNotApplied = errors.New("not applied")

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes  int32
	Errors     int32
	NotApplied int32
	NotFounds  int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors + r.NotApplied + r.NotFounds
}

// RunConcurrent executes fn in parallel goroutines and buckets the results.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, errs, notApplied, notFounds atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrNotApplied):
				notApplied.Add(1)
			case errors.Is(err, sentinel.ErrNotFound):
				notFounds.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}

	wg.Wait()

	return &ConcurrentResult{
		Successes:  successes.Load(),
		Errors:     errs.Load(),
		NotApplied: notApplied.Load(),
		NotFounds:  notFounds.Load(),
	}
}

// Applied converts a state-conditioned write result into RunConcurrent's error convention.
func Applied(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotApplied
	}
	return nil
}

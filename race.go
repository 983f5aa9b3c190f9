package isolate

import (
	"context"
	"fmt"
	"sync"
)

// Race runs every candidate in its own worker and returns the result of
// the first candidate to succeed (return nil error). The remaining
// workers are killed immediately upon the first success.
//
// If all candidates fail, Race returns the zero value and the last error
// observed. If ctx is cancelled before any candidate succeeds, Race
// returns ctx.Err().
//
// If candidates is empty, Race returns (zero, nil).
//
// Race panics if any candidate is nil. A candidate panic counts as that
// candidate failing, not as a panic in the caller.
func Race[T any](
	ctx context.Context,
	candidates ...func(context.Context) (T, error),
) (T, error) {
	var zero T
	if len(candidates) == 0 {
		return zero, nil
	}
	for i, fn := range candidates {
		if fn == nil {
			panic(fmt.Sprintf("isolate: Race candidate[%d] must not be nil", i))
		}
	}

	raceCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	type result struct {
		val T
		err error
	}

	// Buffered so every worker result can land without blocking after
	// the winner is picked up.
	ch := make(chan result, len(candidates))

	var wg sync.WaitGroup
	wg.Add(len(candidates))

	for i, fn := range candidates {
		go func() {
			defer wg.Done()
			comp := computation{
				apply: func(ctx context.Context, _ any) (any, error) {
					return fn(ctx)
				},
			}
			v, err := runOne(raceCtx, comp,
				[]Option{WithName(fmt.Sprintf("race-%d", i))})
			val, _ := v.(T)
			ch <- result{val: val, err: err}
		}()
	}

	// Close ch once all workers are done so the drain loop terminates.
	go func() {
		wg.Wait()
		close(ch)
	}()

	var lastErr error
	for res := range ch {
		if res.err == nil {
			cancel(nil)
			return res.val, nil
		}
		lastErr = res.err
	}

	if ctx.Err() != nil {
		return zero, ctx.Err()
	}
	return zero, lastErr
}

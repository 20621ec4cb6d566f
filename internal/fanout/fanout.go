// Package fanout runs independent per item work in parallel and merges the
// results back in input order.
package fanout

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Map calls fn for every item in parallel. The results are returned in the
// order of the input items. If any call fails, the error of the failed item
// with the lowest index is returned, independent of scheduling.
func Map[T, R any](ctx context.Context, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))

	grp := &errgroup.Group{}
	grp.SetLimit(runtime.GOMAXPROCS(0))

	for i, item := range items {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return err
			}
			res, err := fn(ctx, item)
			if err != nil {
				errs[i] = err
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		for _, e := range errs {
			if e != nil {
				return nil, e
			}
		}
		return nil, err
	}
	return results, nil
}

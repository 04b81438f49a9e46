package resolvers

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// fanOut calls fn for every item concurrently and waits for all calls to
// return. Results keep the order of items. If any call fails, all results
// are dropped and the failure of the earliest item is returned, regardless
// of which call finished first. In-flight calls are not cancelled.
func fanOut[T, R any](ctx context.Context, limit int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			results[i], errs[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

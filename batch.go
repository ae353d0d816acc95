package pocketflow

import (
	"context"
)

// BatchSteps groups the lifecycle functions for a batch node.
// Exec and Fallback are applied to each item returned by Prep.
type BatchSteps[S, I, R any] struct {
	// Prep extracts the items to process.
	Prep func(ctx context.Context, shared S) ([]I, error)

	// Exec processes a single item.
	Exec func(ctx context.Context, item I) (R, error)

	// Fallback handles an item whose attempts are used up.
	Fallback func(ctx context.Context, item I, err error) (R, error)

	// Post receives every result, in input order.
	Post func(ctx context.Context, shared S, items []I, results []R) (Action, error)
}

// NewBatchNode creates a node whose Exec runs once per prepared item.
//
// Items are processed one at a time in input order, each with the node's
// own retry and fallback. The first item that fails terminally aborts the
// batch: Post is not called and no partial results are kept.
func NewBatchNode[S, I, R any](name string, steps BatchSteps[S, I, R], opts ...Option) Node[S] {
	n := &node[S, []I, []R]{
		name: name,
		opts: buildOptions(opts),
		prep: steps.Prep,
		post: steps.Post,
	}
	exec, fallback := steps.Exec, steps.Fallback
	n.exec = func(ctx context.Context, items []I) ([]R, error) {
		results := make([]R, 0, len(items))
		for i, item := range items {
			ictx := context.WithValue(ctx, itemKey{}, i)
			result, err := execWithRetry(ictx, n.name, i, n.opts, item, exec, fallback)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
		}
		return results, nil
	}
	return n
}

package pocketflow_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/agentstation/pocketflow"
)

type benchState struct {
	N     int
	Items []int
	Sum   int
}

func incr(name string) pocketflow.Node[*benchState] {
	return pocketflow.NewNode(name, pocketflow.Steps[*benchState, int, int]{
		Prep: func(ctx context.Context, s *benchState) (int, error) { return s.N, nil },
		Exec: func(ctx context.Context, n int) (int, error) { return n + 1, nil },
		Post: func(ctx context.Context, s *benchState, _, n int) (pocketflow.Action, error) {
			s.N = n
			return pocketflow.ActionDefault, nil
		},
	})
}

// Benchmark node creation.
func BenchmarkNewNode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = incr("bench")
	}
}

// Benchmark single node execution.
func BenchmarkSingleNodeExecution(b *testing.B) {
	flow := pocketflow.NewFlow(incr("bench"))
	ctx := context.Background()
	state := &benchState{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = flow.Run(ctx, state)
	}
}

// Benchmark a linear chain of nodes.
func BenchmarkChain(b *testing.B) {
	for _, size := range []int{5, 20} {
		b.Run(strconv.Itoa(size), func(b *testing.B) {
			start := incr("n0")
			current := start
			for i := 1; i < size; i++ {
				current = current.Then(incr("n" + strconv.Itoa(i)))
			}
			flow := pocketflow.NewFlow(start)
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = flow.Run(ctx, &benchState{})
			}
		})
	}
}

// Benchmark batch processing.
func BenchmarkBatch(b *testing.B) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	sum := pocketflow.NewBatchNode("sum", pocketflow.BatchSteps[*benchState, int, int]{
		Prep: func(ctx context.Context, s *benchState) ([]int, error) { return s.Items, nil },
		Exec: func(ctx context.Context, n int) (int, error) { return n * 2, nil },
		Post: func(ctx context.Context, s *benchState, _ []int, results []int) (pocketflow.Action, error) {
			for _, r := range results {
				s.Sum += r
			}
			return "", nil
		},
	})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = sum.Run(ctx, &benchState{Items: items})
	}
}

// Benchmark store operations.
func BenchmarkStore(b *testing.B) {
	store := pocketflow.NewStore(nil)

	b.Run("Set", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			store.Set("key", i)
		}
	})

	b.Run("Get", func(b *testing.B) {
		store.Set("key", "value")
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = store.Get("key")
		}
	})
}

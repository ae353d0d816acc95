package pocketflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agentstation/pocketflow"
	"github.com/agentstation/pocketflow/internal/testutil"
)

type counter struct {
	Value int
	Log   []string
}

var errBoom = errors.New("boom")

func TestNodeLifecycleOrder(t *testing.T) {
	state := &counter{Value: 2}

	n := pocketflow.NewNode("double", pocketflow.Steps[*counter, int, int]{
		Prep: func(ctx context.Context, s *counter) (int, error) {
			s.Log = append(s.Log, "prep")
			return s.Value, nil
		},
		Exec: func(ctx context.Context, v int) (int, error) {
			return v * 2, nil
		},
		Post: func(ctx context.Context, s *counter, prep, result int) (pocketflow.Action, error) {
			s.Log = append(s.Log, "post")
			if prep != 2 {
				t.Errorf("post prep = %d, want 2", prep)
			}
			s.Value = result
			return "done", nil
		},
	})

	action, err := n.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if action != "done" {
		t.Errorf("action = %q, want %q", action, "done")
	}
	if state.Value != 4 {
		t.Errorf("Value = %d, want 4", state.Value)
	}
	if got := strings.Join(state.Log, ","); got != "prep,post" {
		t.Errorf("Log = %s, want prep,post", got)
	}
}

func TestNodeEmptyActionIsDefault(t *testing.T) {
	n := pocketflow.NewNode("noop", pocketflow.Steps[*counter, any, any]{
		Post: func(ctx context.Context, s *counter, _, _ any) (pocketflow.Action, error) {
			return "", nil
		},
	})

	action, err := n.Run(context.Background(), &counter{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if action != pocketflow.ActionDefault {
		t.Errorf("action = %q, want %q", action, pocketflow.ActionDefault)
	}

	bare := pocketflow.NewNode("bare", pocketflow.Steps[*counter, any, any]{})
	action, err = bare.Run(context.Background(), &counter{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if action != pocketflow.ActionDefault {
		t.Errorf("bare action = %q, want %q", action, pocketflow.ActionDefault)
	}
}

func TestRetryExhaustion(t *testing.T) {
	tests := []struct {
		name        string
		maxAttempts int
	}{
		{"single attempt", 1},
		{"two attempts", 2},
		{"five attempts", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			execCalls, fallbackCalls, postCalls := 0, 0, 0

			n := pocketflow.NewNode("flaky", pocketflow.Steps[*counter, int, int]{
				Exec: func(ctx context.Context, _ int) (int, error) {
					execCalls++
					return 0, errBoom
				},
				Fallback: func(ctx context.Context, _ int, err error) (int, error) {
					fallbackCalls++
					return 0, err
				},
				Post: func(ctx context.Context, _ *counter, _, _ int) (pocketflow.Action, error) {
					postCalls++
					return "", nil
				},
			}, pocketflow.WithRetry(tt.maxAttempts, 0))

			_, err := n.Run(context.Background(), &counter{})
			if !errors.Is(err, errBoom) {
				t.Fatalf("Run() error = %v, want %v", err, errBoom)
			}
			if execCalls != tt.maxAttempts {
				t.Errorf("exec calls = %d, want %d", execCalls, tt.maxAttempts)
			}
			if fallbackCalls != 1 {
				t.Errorf("fallback calls = %d, want 1", fallbackCalls)
			}
			if postCalls != 0 {
				t.Errorf("post calls = %d, want 0", postCalls)
			}

			var nodeErr *pocketflow.NodeError
			if !errors.As(err, &nodeErr) {
				t.Fatalf("error %T is not a *NodeError", err)
			}
			if nodeErr.Node != "flaky" || nodeErr.Phase != pocketflow.PhaseExec || nodeErr.Attempts != tt.maxAttempts {
				t.Errorf("NodeError = %+v", nodeErr)
			}
			if nodeErr.Item != -1 {
				t.Errorf("Item = %d, want -1", nodeErr.Item)
			}
		})
	}
}

func TestDefaultFallbackReraises(t *testing.T) {
	calls := 0
	n := pocketflow.NewNode("fails", pocketflow.Steps[*counter, any, any]{
		Exec: func(ctx context.Context, _ any) (any, error) {
			calls++
			return nil, errBoom
		},
	}, pocketflow.WithRetry(3, 0))

	_, err := n.Run(context.Background(), &counter{})
	if !errors.Is(err, errBoom) {
		t.Fatalf("Run() error = %v, want %v", err, errBoom)
	}
	if calls != 3 {
		t.Errorf("exec calls = %d, want 3", calls)
	}
}

func TestRetryThenSucceed(t *testing.T) {
	const failures = 2
	calls := 0
	fallbackCalled := false
	var retryAtSuccess int

	n := pocketflow.NewNode("eventually", pocketflow.Steps[*counter, any, string]{
		Exec: func(ctx context.Context, _ any) (string, error) {
			calls++
			if calls <= failures {
				return "", errBoom
			}
			retryAtSuccess = pocketflow.Attempt(ctx)
			return "ok", nil
		},
		Fallback: func(ctx context.Context, _ any, err error) (string, error) {
			fallbackCalled = true
			return "", err
		},
		Post: func(ctx context.Context, s *counter, _ any, out string) (pocketflow.Action, error) {
			s.Log = append(s.Log, out)
			return "", nil
		},
	}, pocketflow.WithRetry(4, 0))

	state := &counter{}
	if _, err := n.Run(context.Background(), state); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if retryAtSuccess != failures {
		t.Errorf("retry counter = %d, want %d", retryAtSuccess, failures)
	}
	if fallbackCalled {
		t.Error("fallback should not have been called")
	}
	if len(state.Log) != 1 || state.Log[0] != "ok" {
		t.Errorf("Log = %v, want [ok]", state.Log)
	}
}

func TestRetryCounterResetsPerInvocation(t *testing.T) {
	var attempts []int
	fail := true

	n := pocketflow.NewNode("reset", pocketflow.Steps[*counter, any, any]{
		Exec: func(ctx context.Context, _ any) (any, error) {
			attempts = append(attempts, pocketflow.Attempt(ctx))
			if fail {
				fail = false
				return nil, errBoom
			}
			return nil, nil
		},
	}, pocketflow.WithRetry(2, 0))

	ctx := context.Background()
	if _, err := n.Run(ctx, &counter{}); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if _, err := n.Run(ctx, &counter{}); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	want := []int{0, 1, 0}
	testutil.NewAssert(t).Equal(want, attempts)
}

func TestFallbackRecovers(t *testing.T) {
	n := pocketflow.NewNode("recover", pocketflow.Steps[*counter, int, int]{
		Prep: func(ctx context.Context, s *counter) (int, error) { return 7, nil },
		Exec: func(ctx context.Context, _ int) (int, error) {
			return 0, errBoom
		},
		Fallback: func(ctx context.Context, prep int, err error) (int, error) {
			if !errors.Is(err, errBoom) {
				t.Errorf("fallback err = %v, want %v", err, errBoom)
			}
			return prep * 10, nil
		},
		Post: func(ctx context.Context, s *counter, _, result int) (pocketflow.Action, error) {
			s.Value = result
			return "recovered", nil
		},
	}, pocketflow.WithRetry(2, 0))

	state := &counter{}
	action, err := n.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if action != "recovered" || state.Value != 70 {
		t.Errorf("action = %q, Value = %d; want recovered, 70", action, state.Value)
	}
}

func TestFallbackFailureAborts(t *testing.T) {
	errFallback := errors.New("fallback failed")
	n := pocketflow.NewNode("abort", pocketflow.Steps[*counter, any, any]{
		Exec: func(ctx context.Context, _ any) (any, error) {
			return nil, errBoom
		},
		Fallback: func(ctx context.Context, _ any, err error) (any, error) {
			return nil, errFallback
		},
	})

	_, err := n.Run(context.Background(), &counter{})
	if !errors.Is(err, errFallback) {
		t.Fatalf("Run() error = %v, want %v", err, errFallback)
	}
}

func TestRetryWait(t *testing.T) {
	t.Run("waits between attempts", func(t *testing.T) {
		calls := 0
		n := pocketflow.NewNode("slow", pocketflow.Steps[*counter, any, any]{
			Exec: func(ctx context.Context, _ any) (any, error) {
				calls++
				if calls < 3 {
					return nil, errBoom
				}
				return nil, nil
			},
		}, pocketflow.WithRetry(3, 20*time.Millisecond))

		start := time.Now()
		if _, err := n.Run(context.Background(), &counter{}); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
			t.Errorf("elapsed = %v, want >= 40ms", elapsed)
		}
	})

	t.Run("wait stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		n := pocketflow.NewNode("cancelled", pocketflow.Steps[*counter, any, any]{
			Exec: func(ctx context.Context, _ any) (any, error) {
				cancel()
				return nil, errBoom
			},
		}, pocketflow.WithRetry(3, time.Hour))

		_, err := n.Run(ctx, &counter{})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
	})
}

func TestRetryClamping(t *testing.T) {
	calls := 0
	n := pocketflow.NewNode("clamped", pocketflow.Steps[*counter, any, any]{
		Exec: func(ctx context.Context, _ any) (any, error) {
			calls++
			return nil, errBoom
		},
	}, pocketflow.WithRetry(0, -time.Second))

	if _, err := n.Run(context.Background(), &counter{}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("exec calls = %d, want 1", calls)
	}
}

func TestPrepAndPostErrors(t *testing.T) {
	errPrep := errors.New("prep broke")
	errPost := errors.New("post broke")
	execCalled := false

	prepFails := pocketflow.NewNode("prep-fails", pocketflow.Steps[*counter, any, any]{
		Prep: func(ctx context.Context, _ *counter) (any, error) { return nil, errPrep },
		Exec: func(ctx context.Context, _ any) (any, error) {
			execCalled = true
			return nil, nil
		},
	}, pocketflow.WithRetry(3, 0))

	_, err := prepFails.Run(context.Background(), &counter{})
	var nodeErr *pocketflow.NodeError
	if !errors.As(err, &nodeErr) || nodeErr.Phase != pocketflow.PhasePrep || !errors.Is(err, errPrep) {
		t.Errorf("prep error = %v", err)
	}
	if execCalled {
		t.Error("exec should not run after prep fails")
	}

	postFails := pocketflow.NewNode("post-fails", pocketflow.Steps[*counter, any, any]{
		Post: func(ctx context.Context, _ *counter, _, _ any) (pocketflow.Action, error) {
			return "", errPost
		},
	})
	_, err = postFails.Run(context.Background(), &counter{})
	if !errors.As(err, &nodeErr) || nodeErr.Phase != pocketflow.PhasePost || !errors.Is(err, errPost) {
		t.Errorf("post error = %v", err)
	}
}

func TestDeclaredActions(t *testing.T) {
	emit := func(a pocketflow.Action) pocketflow.Node[*counter] {
		return pocketflow.NewNode("router", pocketflow.Steps[*counter, any, any]{
			Post: func(ctx context.Context, _ *counter, _, _ any) (pocketflow.Action, error) {
				return a, nil
			},
		}, pocketflow.WithActions("left", "right"), pocketflow.WithTerminal("stop"))
	}

	for _, a := range []pocketflow.Action{"left", "right", "stop"} {
		if _, err := emit(a).Run(context.Background(), &counter{}); err != nil {
			t.Errorf("action %q: unexpected error %v", a, err)
		}
	}

	_, err := emit("sideways").Run(context.Background(), &counter{})
	if !errors.Is(err, pocketflow.ErrUndeclaredAction) {
		t.Errorf("error = %v, want ErrUndeclaredAction", err)
	}
}

func TestSetDefaults(t *testing.T) {
	defer pocketflow.ResetDefaults()
	pocketflow.SetDefaults(pocketflow.WithRetry(3, 0))

	calls := 0
	n := pocketflow.NewNode("defaulted", pocketflow.Steps[*counter, any, any]{
		Exec: func(ctx context.Context, _ any) (any, error) {
			calls++
			return nil, errBoom
		},
	})
	_, _ = n.Run(context.Background(), &counter{})
	if calls != 3 {
		t.Errorf("exec calls with defaults = %d, want 3", calls)
	}

	pocketflow.ResetDefaults()
	calls = 0
	n = pocketflow.NewNode("reset", pocketflow.Steps[*counter, any, any]{
		Exec: func(ctx context.Context, _ any) (any, error) {
			calls++
			return nil, errBoom
		},
	})
	_, _ = n.Run(context.Background(), &counter{})
	if calls != 1 {
		t.Errorf("exec calls after reset = %d, want 1", calls)
	}
}

package testutil

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// recorder captures failures instead of stopping the test.
type recorder struct {
	testing.TB
	failures []string
}

func (r *recorder) Helper() {}

func (r *recorder) Fatal(args ...any) { r.failures = append(r.failures, fmt.Sprint(args...)) }

func (r *recorder) Fatalf(format string, args ...any) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

func TestAssert(t *testing.T) {
	errDown := errors.New("down")

	tests := []struct {
		name string
		run  func(a *Assert)
		fail string // substring of the failure, "" for a pass
	}{
		{"equal", func(a *Assert) { a.Equal([]int{1}, []int{1}) }, ""},
		{"not equal", func(a *Assert) { a.Equal("a", "b") }, `want "a"`},
		{"false", func(a *Assert) { a.False(true) }, "condition is true"},
		{"error is", func(a *Assert) { a.ErrorIs(fmt.Errorf("fetch: %w", errDown), errDown) }, ""},
		{"error is not", func(a *Assert) { a.ErrorIs(errors.New("other"), errDown) }, "is not down"},
		{"no error", func(a *Assert) { a.NoError(errDown) }, "unexpected error: down"},
		{"contains", func(a *Assert) { a.Contains("gpt-4o-mini", "4o") }, ""},
		{"not contains", func(a *Assert) { a.NotContains("gpt-4o-mini", "mini") }, `"mini" unexpectedly found`},
		{"len", func(a *Assert) { a.Len(map[string]int{"a": 1}, 2) }, "len = 1, want 2"},
		{"empty", func(a *Assert) { a.Empty("") }, ""},
		{"formatted message", func(a *Assert) { a.True(false, "topic %d", 3) }, "topic 3: condition is false"},
		{"no length", func(a *Assert) { a.Len(42, 0) }, "cannot take the length of int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{TB: t}
			tt.run(NewAssert(r))

			if tt.fail == "" {
				if len(r.failures) != 0 {
					t.Errorf("unexpected failure: %v", r.failures)
				}
				return
			}
			if len(r.failures) == 0 || !strings.Contains(r.failures[0], tt.fail) {
				t.Errorf("failures = %v, want one containing %q", r.failures, tt.fail)
			}
		})
	}
}

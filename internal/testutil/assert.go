// Package testutil holds fakes, fixtures and assertion helpers for the
// ytdigest tests.
package testutil

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// Assert stops the test at the first failed check.
type Assert struct {
	t testing.TB
}

// NewAssert returns an Assert bound to t.
func NewAssert(t testing.TB) *Assert {
	return &Assert{t: t}
}

// Equal compares with reflect.DeepEqual.
func (a *Assert) Equal(want, got any, msgAndArgs ...any) {
	a.t.Helper()
	a.check(reflect.DeepEqual(want, got), msgAndArgs, "got  %#v\nwant %#v", got, want)
}

func (a *Assert) True(ok bool, msgAndArgs ...any) {
	a.t.Helper()
	a.check(ok, msgAndArgs, "condition is false")
}

func (a *Assert) False(ok bool, msgAndArgs ...any) {
	a.t.Helper()
	a.check(!ok, msgAndArgs, "condition is true")
}

func (a *Assert) Error(err error, msgAndArgs ...any) {
	a.t.Helper()
	a.check(err != nil, msgAndArgs, "error is nil")
}

func (a *Assert) NoError(err error, msgAndArgs ...any) {
	a.t.Helper()
	a.check(err == nil, msgAndArgs, "unexpected error: %v", err)
}

// ErrorIs checks errors.Is(err, target).
func (a *Assert) ErrorIs(err, target error, msgAndArgs ...any) {
	a.t.Helper()
	a.check(errors.Is(err, target), msgAndArgs, "error %v is not %v", err, target)
}

func (a *Assert) Contains(s, substr string, msgAndArgs ...any) {
	a.t.Helper()
	a.check(strings.Contains(s, substr), msgAndArgs, "%q not found in:\n%s", substr, s)
}

func (a *Assert) NotContains(s, substr string, msgAndArgs ...any) {
	a.t.Helper()
	a.check(!strings.Contains(s, substr), msgAndArgs, "%q unexpectedly found in:\n%s", substr, s)
}

// Len checks the length of a string, slice, array, map or channel.
func (a *Assert) Len(v any, n int, msgAndArgs ...any) {
	a.t.Helper()
	got := length(a.t, v)
	a.check(got == n, msgAndArgs, "len = %d, want %d", got, n)
}

func (a *Assert) Empty(v any, msgAndArgs ...any) {
	a.t.Helper()
	a.Len(v, 0, msgAndArgs...)
}

// check fails the test with the formatted detail when ok is false. A
// leading format string in msgAndArgs is printed above the detail.
func (a *Assert) check(ok bool, msgAndArgs []any, detail string, args ...any) {
	a.t.Helper()
	if ok {
		return
	}
	msg := fmt.Sprintf(detail, args...)
	if len(msgAndArgs) > 0 {
		if format, isString := msgAndArgs[0].(string); isString {
			msg = fmt.Sprintf(format, msgAndArgs[1:]...) + ": " + msg
		} else {
			msg = fmt.Sprint(msgAndArgs...) + ": " + msg
		}
	}
	a.t.Fatal(msg)
}

func length(t testing.TB, v any) int {
	t.Helper()
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array, reflect.Chan, reflect.Map, reflect.Slice, reflect.String:
		return rv.Len()
	}
	t.Fatalf("cannot take the length of %T", v)
	return 0
}

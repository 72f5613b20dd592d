// Package testutil contains the assertion helpers used by tests throughout
// the module.
package testutil

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/google/go-cmp/cmp"
)

// TB is the subset of testing.TB the helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// Equals fails the test if got and want differ.
func Equals[T any](t TB, got, want T) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

// OK fails the test if err is non-nil.
func OK(t TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("got %v want nil", err)
	}
}

// Error fails the test if err is nil.
func Error(t TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("got nil want error")
	}
}

// ErrorIs fails the test if errors.Is(err, want) is false.
func ErrorIs(t TB, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("err got %v want %v", err, want)
	}
}

// FatalIf fails the test if cond is true.
func FatalIf(t TB, cond bool, format string, args ...any) {
	t.Helper()
	if cond {
		t.Fatalf(format, args...)
	}
}

// JSONMarshalsTo asserts that v marshals to the given JSON document,
// ignoring whitespace differences.
func JSONMarshalsTo[T any](t TB, v T, want string) {
	t.Helper()
	b, err := json.Marshal(v)
	OK(t, err)
	var wantBuf bytes.Buffer
	err = json.Compact(&wantBuf, []byte(want))
	OK(t, err)
	Equals(t, string(b), wantBuf.String())
}

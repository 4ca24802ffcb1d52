// Package testkit holds assertions and seam helpers shared by package tests
package testkit

import (
	"strings"
	"sync"
	"testing"
)

// Swap replaces *target for the rest of the test
func Swap[T any](t testing.TB, target *T, v T) {
	t.Helper()
	prev := *target
	*target = v
	t.Cleanup(func() { *target = prev })
}

var serial sync.Mutex

// Serial holds a process wide lock until the test ends, for tests that swap shared seams
func Serial(t testing.TB) {
	t.Helper()
	serial.Lock()
	t.Cleanup(serial.Unlock)
}

// MustPanic fails unless fn panics and returns the recovered value
func MustPanic(t testing.TB, fn func()) (v any) {
	t.Helper()
	defer func() {
		if v = recover(); v == nil {
			t.Fatal("expected a panic")
		}
	}()
	fn()
	return nil
}

// MustNotPanic fails if fn panics
func MustNotPanic(t testing.TB, fn func()) {
	t.Helper()
	defer func() {
		if v := recover(); v != nil {
			t.Fatalf("unexpected panic: %v", v)
		}
	}()
	fn()
}

// MustContain fails unless s contains sub, long output is trimmed in the message
func MustContain(t testing.TB, s, sub string) {
	t.Helper()
	if strings.Contains(s, sub) {
		return
	}
	shown := s
	if len(shown) > 2048 {
		shown = shown[:2048] + "…"
	}
	t.Fatalf("missing %q in:\n%s", sub, shown)
}

// Package testkit holds the assertion helpers shared by ringroster tests
package testkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// MustPanic fails the test unless fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	MustPanicWith(t, fn)
}

// MustPanicWith fails the test unless fn panics and returns the panic value as text
func MustPanicWith(t *testing.T, fn func()) (msg string) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic, got none")
		}
		msg = fmt.Sprint(r)
	}()
	fn()
	return ""
}

// MustNotPanic fails the test when fn panics
func MustNotPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	fn()
}

// long output is written to a file instead of the failure message
const inlineLimit = 2 << 10

// MustContain fails the test unless haystack contains needle
func MustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		return
	}
	if len(haystack) <= inlineLimit {
		t.Fatalf("expected %q in:\n%s", needle, haystack)
	}
	path := filepath.Join(t.TempDir(), "output.txt")
	_ = os.WriteFile(path, []byte(haystack), 0o600)
	t.Fatalf("expected %q in %d bytes of output, full output in %s", needle, len(haystack), path)
}

// Eventually polls cond every few milliseconds until it holds or timeout passes
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %s waiting for %s", timeout, what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

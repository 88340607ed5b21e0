// Package valuetest provides shared go-cmp options for comparing
// value.Value trees in tests, the way gonum's own test suite leans on
// go-cmp for deep numeric/struct comparisons rather than hand-rolled
// equality checks (graph/formats/rdf/graph_test.go).
package valuetest

import (
	"github.com/google/go-cmp/cmp"

	"github.com/racketcore/valuecore/pkg/hashtable"
	"github.com/racketcore/valuecore/pkg/value"
)

// Comparer treats two value.Value trees as equal exactly when equal?
// (pkg/hashtable.Equal) says so, instead of descending into unexported
// struct fields field-by-field. A vector and a chaperoned copy of the
// same vector compare equal under this option, matching the
// transparency equal? itself guarantees.
func Comparer() cmp.Option {
	return cmp.Comparer(func(a, b value.Value) bool {
		return hashtable.Equal(a, b)
	})
}

// Diff reports the empty string when got and want are equal? and a
// human-readable diff otherwise.
func Diff(got, want value.Value) string {
	if hashtable.Equal(got, want) {
		return ""
	}
	return cmp.Diff(got, want, Comparer())
}

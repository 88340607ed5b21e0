package valuetest_test

import (
	"testing"

	"github.com/racketcore/valuecore/internal/valuetest"
	"github.com/racketcore/valuecore/pkg/chaperone"
	"github.com/racketcore/valuecore/pkg/numeric"
	"github.com/racketcore/valuecore/pkg/trampoline"
	"github.com/racketcore/valuecore/pkg/value"
)

func TestDiffEmptyForEqualScalars(t *testing.T) {
	if diff := valuetest.Diff(numeric.Fixnum(5), numeric.Fixnum(5)); diff != "" {
		t.Fatalf("expected no diff, got %q", diff)
	}
}

func TestDiffNonEmptyForDifferentScalars(t *testing.T) {
	if diff := valuetest.Diff(numeric.Fixnum(5), numeric.Fixnum(6)); diff == "" {
		t.Fatal("expected a diff between 5 and 6")
	}
}

func TestDiffTreatsStructurallyEqualConsAsEqual(t *testing.T) {
	a := &value.Cons{Car: numeric.Fixnum(1), Cdr: value.TheNull}
	b := &value.Cons{Car: numeric.Fixnum(1), Cdr: value.TheNull}
	if diff := valuetest.Diff(a, b); diff != "" {
		t.Fatalf("distinct but structurally equal cons cells should diff empty, got %q", diff)
	}
}

func TestDiffSeesThroughChaperoneWrapper(t *testing.T) {
	vec := value.NewVector([]value.Value{numeric.Fixnum(1), numeric.Fixnum(2)}, false)
	passThrough := value.NewProcedure("id", func(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
		return cont.Invoke(trampoline.Return(value.Values(args), env, cont))
	})
	wrapped, err := chaperone.ChaperoneVector([]value.Value{vec, passThrough, passThrough})
	if err != nil {
		t.Fatalf("ChaperoneVector failed: %v", err)
	}
	if diff := valuetest.Diff(wrapped.(value.Value), vec); diff != "" {
		t.Fatalf("a chaperoned vector should compare equal to its base, got %q", diff)
	}
}

package hashtable

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/numeric"
	"github.com/racketcore/valuecore/pkg/trampoline"
	"github.com/racketcore/valuecore/pkg/value"
)

func TestSetRefRoundTrip(t *testing.T) {
	tbl := New(KindEqual, false)
	if err := Set(tbl, value.Symbol("a"), numeric.Fixnum(1)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := Ref(tbl, value.Symbol("a"), nil)
	if err != nil || got != numeric.Fixnum(1) {
		t.Fatalf("Ref = %v, %v, want 1, nil", got, err)
	}
}

func TestRefMissingKeyWithoutDefaultFails(t *testing.T) {
	tbl := New(KindEqual, false)
	_, err := Ref(tbl, value.Symbol("missing"), nil)
	if err == nil {
		t.Fatal("expected KeyNotFound error")
	}
	if ce, ok := err.(*corerr.Error); !ok || ce.Kind != corerr.KeyNotFound {
		t.Fatalf("got %v, want KeyNotFound", err)
	}
}

func TestRefMissingKeyWithDefaultThunk(t *testing.T) {
	tbl := New(KindEqual, false)
	thunk := value.NewProcedure("deflt", func(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
		return cont.Invoke(trampoline.Return(numeric.Fixnum(99), env, cont))
	})
	got, err := Ref(tbl, value.Symbol("missing"), thunk)
	if err != nil || got != numeric.Fixnum(99) {
		t.Fatalf("Ref with default thunk = %v, %v, want 99, nil", got, err)
	}
}

func TestRefMissingKeyWithNonProcedureDefault(t *testing.T) {
	tbl := New(KindEqual, false)
	got, err := Ref(tbl, value.Symbol("missing"), numeric.Fixnum(7))
	if err != nil || got != numeric.Fixnum(7) {
		t.Fatalf("Ref with plain default = %v, %v, want 7, nil", got, err)
	}
}

func TestCountTracksSetAndRemove(t *testing.T) {
	tbl := New(KindEqual, false)
	Set(tbl, numeric.Fixnum(1), value.Symbol("one"))
	Set(tbl, numeric.Fixnum(2), value.Symbol("two"))
	if n, _ := Count(tbl); n != 2 {
		t.Fatalf("Count = %d, want 2", n)
	}
	if err := Remove(tbl, numeric.Fixnum(1)); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if n, _ := Count(tbl); n != 1 {
		t.Fatalf("Count after Remove = %d, want 1", n)
	}
}

func TestSetOverwritesExistingKeyWithoutGrowingCount(t *testing.T) {
	tbl := New(KindEqual, false)
	Set(tbl, numeric.Fixnum(1), value.Symbol("one"))
	Set(tbl, numeric.Fixnum(1), value.Symbol("uno"))
	if n, _ := Count(tbl); n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}
	got, _ := Ref(tbl, numeric.Fixnum(1), nil)
	if got != value.Symbol("uno") {
		t.Fatalf("got %v, want uno", got)
	}
}

func TestClearEmptiesTable(t *testing.T) {
	tbl := New(KindEqual, false)
	Set(tbl, numeric.Fixnum(1), value.Symbol("one"))
	if err := Clear(tbl); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if n, _ := Count(tbl); n != 0 {
		t.Fatalf("Count after Clear = %d, want 0", n)
	}
}

func TestMutationRejectedOnImmutableTable(t *testing.T) {
	tbl := New(KindEqual, true)
	if err := Set(tbl, numeric.Fixnum(1), value.Symbol("one")); err == nil {
		t.Fatal("expected ImmutableFieldMutation error")
	}
	if err := Remove(tbl, numeric.Fixnum(1)); err == nil {
		t.Fatal("expected ImmutableFieldMutation error on remove")
	}
	if err := Clear(tbl); err == nil {
		t.Fatal("expected ImmutableFieldMutation error on clear")
	}
}

func TestCopyIsIndependentOfOriginal(t *testing.T) {
	tbl := New(KindEqual, false)
	Set(tbl, numeric.Fixnum(1), value.Symbol("one"))
	cp, err := Copy(tbl)
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	Set(tbl, numeric.Fixnum(2), value.Symbol("two"))
	if n, _ := Count(tbl); n != 2 {
		t.Fatalf("original Count = %d, want 2", n)
	}
	if cp.Count() != 1 {
		t.Fatalf("copy Count = %d, want 1 (unaffected by later writes to original)", cp.Count())
	}
}

func TestEqTableDistinguishesStructurallyEqualCons(t *testing.T) {
	tbl := New(KindEq, false)
	a := &value.Cons{Car: numeric.Fixnum(1), Cdr: value.TheNull}
	b := &value.Cons{Car: numeric.Fixnum(1), Cdr: value.TheNull}
	Set(tbl, a, value.Symbol("a-value"))
	if _, err := Ref(tbl, b, nil); err == nil {
		t.Fatal("eq? table should not find a structurally-equal but distinct cons cell")
	}
	if got, err := Ref(tbl, a, nil); err != nil || got != value.Symbol("a-value") {
		t.Fatalf("Ref on the original key = %v, %v, want a-value, nil", got, err)
	}
}

func TestEqualTableUnifiesStructurallyEqualCons(t *testing.T) {
	tbl := New(KindEqual, false)
	a := &value.Cons{Car: numeric.Fixnum(1), Cdr: value.TheNull}
	b := &value.Cons{Car: numeric.Fixnum(1), Cdr: value.TheNull}
	Set(tbl, a, value.Symbol("a-value"))
	got, err := Ref(tbl, b, nil)
	if err != nil || got != value.Symbol("a-value") {
		t.Fatalf("equal? table should find a structurally-equal key: got %v, %v", got, err)
	}
}

func TestEqvTableUnifiesNumbersAcrossAllocations(t *testing.T) {
	tbl := New(KindEqv, false)
	Set(tbl, numeric.NewBignum(big.NewInt(123456789012345)), value.Symbol("big"))
	got, err := Ref(tbl, numeric.NewBignum(big.NewInt(123456789012345)), nil)
	if err != nil || got != value.Symbol("big") {
		t.Fatalf("eqv? table should unify equal bignums from separate allocations: got %v, %v", got, err)
	}
}

func TestForEachVisitsEveryEntryExactlyOnce(t *testing.T) {
	tbl := New(KindEqual, false)
	Set(tbl, numeric.Fixnum(1), numeric.Fixnum(10))
	Set(tbl, numeric.Fixnum(2), numeric.Fixnum(20))
	Set(tbl, numeric.Fixnum(3), numeric.Fixnum(30))

	seen := map[numeric.Fixnum]numeric.Fixnum{}
	proc := value.NewProcedure("visit", func(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
		seen[args[0].(numeric.Fixnum)] = args[1].(numeric.Fixnum)
		return cont.Invoke(trampoline.Return(value.TheVoid, env, cont))
	})

	result := trampoline.Run(ForEach(tbl, proc, nil, trampoline.IdentityContinuation{}))
	if _, ok := result.(value.Void); !ok {
		t.Fatalf("ForEach result = %v, want void", result)
	}
	if len(seen) != 3 {
		t.Fatalf("visited %d entries, want 3", len(seen))
	}
	want := map[numeric.Fixnum]numeric.Fixnum{1: 10, 2: 20, 3: 30}
	for k, v := range want {
		if seen[k] != v {
			t.Fatalf("seen[%d] = %v, want %v", k, seen[k], v)
		}
	}
}

func TestForEachOnEmptyTableReturnsVoidImmediately(t *testing.T) {
	tbl := New(KindEqual, false)
	called := false
	proc := value.NewProcedure("visit", func(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
		called = true
		return cont.Invoke(trampoline.Return(value.TheVoid, env, cont))
	})
	trampoline.Run(ForEach(tbl, proc, nil, trampoline.IdentityContinuation{}))
	if called {
		t.Fatal("proc should never run over an empty table")
	}
}

func TestMapCollectsResultsForEveryEntry(t *testing.T) {
	tbl := New(KindEqual, false)
	Set(tbl, numeric.Fixnum(1), numeric.Fixnum(10))
	Set(tbl, numeric.Fixnum(2), numeric.Fixnum(20))
	double := value.NewProcedure("double-val", func(args []value.Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
		n := args[1].(numeric.Fixnum)
		return cont.Invoke(trampoline.Return(numeric.Fixnum(n*2), env, cont))
	})
	results, err := Map(tbl, double)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	sum := numeric.Fixnum(0)
	for _, r := range results {
		sum += r.(numeric.Fixnum)
	}
	if sum != 60 {
		t.Fatalf("sum of doubled values = %d, want 60", sum)
	}
}

func TestIteratorWalksEveryEntryAndStopsAtEnd(t *testing.T) {
	tbl := New(KindEqual, false)
	Set(tbl, numeric.Fixnum(1), value.Symbol("one"))
	Set(tbl, numeric.Fixnum(2), value.Symbol("two"))

	it, ok := IterateFirst(tbl)
	if !ok {
		t.Fatal("IterateFirst should succeed on a non-empty table")
	}
	count := 1
	for {
		next, ok := it.Next()
		if !ok {
			break
		}
		it = next
		count++
	}
	if count != 2 {
		t.Fatalf("iterator visited %d entries, want 2", count)
	}
}

func TestIteratorStableUnderConcurrentMutation(t *testing.T) {
	tbl := New(KindEqual, false)
	Set(tbl, numeric.Fixnum(1), value.Symbol("one"))
	Set(tbl, numeric.Fixnum(2), value.Symbol("two"))

	it, ok := IterateFirst(tbl)
	if !ok {
		t.Fatal("IterateFirst should succeed")
	}
	Set(tbl, numeric.Fixnum(3), value.Symbol("three"))
	Remove(tbl, numeric.Fixnum(1))

	seen := map[value.Value]bool{it.Key(): true}
	for {
		next, ok := it.Next()
		if !ok {
			break
		}
		it = next
		seen[it.Key()] = true
	}
	if len(seen) != 2 {
		t.Fatalf("iterator snapshot should still show the original 2 keys, got %d", len(seen))
	}
}

func TestIterateFirstOnEmptyTableFails(t *testing.T) {
	tbl := New(KindEqual, false)
	if _, ok := IterateFirst(tbl); ok {
		t.Fatal("IterateFirst should fail on an empty table")
	}
}

// TestItemsReturnInsertionOrderAcrossManyBuckets exercises items()
// with enough entries to span several hash/maphash buckets, since the
// bug this guards against (ranging over the bucket map directly) only
// shows up once iteration order would otherwise be randomized. Uses
// require so a failure names the expected/actual slices directly
// rather than a hand-rolled loop-and-Fatalf.
func TestItemsReturnInsertionOrderAcrossManyBuckets(t *testing.T) {
	tbl := New(KindEqual, false)
	var want []numeric.Fixnum
	for i := 0; i < 64; i++ {
		k := numeric.Fixnum(i)
		require.NoError(t, Set(tbl, k, k))
		want = append(want, k)
	}

	var got []numeric.Fixnum
	for _, e := range tbl.items() {
		got = append(got, e.key.(numeric.Fixnum))
	}
	require.Equal(t, want, got, "items() must preserve insertion order")
}

// TestItemsPreservesOriginalPositionAfterOverwrite checks that
// updating an existing key's value does not move it to the back of
// the insertion order, matching the usual map/dict convention.
func TestItemsPreservesOriginalPositionAfterOverwrite(t *testing.T) {
	tbl := New(KindEqual, false)
	require.NoError(t, Set(tbl, numeric.Fixnum(1), value.Symbol("one")))
	require.NoError(t, Set(tbl, numeric.Fixnum(2), value.Symbol("two")))
	require.NoError(t, Set(tbl, numeric.Fixnum(1), value.Symbol("uno")))

	items := tbl.items()
	require.Len(t, items, 2)
	require.Equal(t, numeric.Fixnum(1), items[0].key)
	require.Equal(t, value.Symbol("uno"), items[0].val)
	require.Equal(t, numeric.Fixnum(2), items[1].key)
}

func TestNewWeakEqBehavesAsOrdinaryEqTable(t *testing.T) {
	tbl := NewWeakEq()
	if tbl.Kind() != KindEq {
		t.Fatalf("NewWeakEq Kind = %v, want KindEq", tbl.Kind())
	}
	a := &value.Cons{Car: numeric.Fixnum(1), Cdr: value.TheNull}
	Set(tbl, a, value.Symbol("kept"))
	got, err := Ref(tbl, a, nil)
	if err != nil || got != value.Symbol("kept") {
		t.Fatalf("weak-eq table should still hold entries like a normal table: got %v, %v", got, err)
	}
}

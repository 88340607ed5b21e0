package hashtable

import (
	"github.com/racketcore/valuecore/pkg/chaperone"
	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/trampoline"
	"github.com/racketcore/valuecore/pkg/value"
)

// asTable peels a chaperone.HashWrapper chain down to the concrete
// *Table every operation below ultimately needs to touch. It runs no
// handler; the chaperone.Hash* hooks do that.
func asTable(v value.Value) (*Table, bool) {
	t, ok := value.GetBaseObject(v).(*Table)
	return t, ok
}

// Ref implements hash-ref: found value, a failure thunk's result, or
// KeyNotFound when no default was supplied, exactly hash_ref_cont's
// three branches in hash.py.
func Ref(v value.Value, key value.Value, deflt value.Value) (value.Value, error) {
	val, found, err := chaperone.HashRef(v, key, func(k value.Value) (value.Value, bool) {
		t, ok := asTable(v)
		if !ok {
			return nil, false
		}
		return t.lookup(k)
	})
	if err != nil {
		return nil, err
	}
	if found {
		return val, nil
	}
	if deflt == nil {
		return nil, corerr.New("hash-ref", corerr.KeyNotFound, "no value found for key")
	}
	if c, ok := deflt.(value.Callable); ok {
		result := trampoline.Run(c.Call(nil, nil, trampoline.IdentityContinuation{}))
		if err, ok := result.(error); ok {
			return nil, err
		}
		val, ok := result.(value.Value)
		if !ok {
			return nil, corerr.New("hash-ref", corerr.ContractViolation, "failure thunk did not return a value")
		}
		return val, nil
	}
	return deflt, nil
}

// Set implements hash-set! as direct mutation of the table. A table
// created immutable (New(kind, true)) is rejected with a contract
// error; this package has no functional hash-set that returns an
// updated copy.
func Set(v value.Value, key, val value.Value) error {
	t, ok := asTable(v)
	if !ok {
		return corerr.New("hash-set!", corerr.ContractViolation, "not a hash table")
	}
	if err := t.requireMutable("hash-set!"); err != nil {
		return err
	}
	return chaperone.HashSet(v, key, val, func(k, val value.Value) {
		t.set(k, val)
	})
}

func Remove(v value.Value, key value.Value) error {
	t, ok := asTable(v)
	if !ok {
		return corerr.New("hash-remove!", corerr.ContractViolation, "not a hash table")
	}
	if err := t.requireMutable("hash-remove!"); err != nil {
		return err
	}
	return chaperone.HashRemove(v, key, func(k value.Value) {
		t.remove(k)
	})
}

func Clear(v value.Value) error {
	t, ok := asTable(v)
	if !ok {
		return corerr.New("hash-clear!", corerr.ContractViolation, "not a hash table")
	}
	if err := t.requireMutable("hash-clear!"); err != nil {
		return err
	}
	t.clear()
	return nil
}

func Count(v value.Value) (int, error) {
	t, ok := asTable(v)
	if !ok {
		return 0, corerr.New("hash-count", corerr.ContractViolation, "not a hash table")
	}
	return t.Count(), nil
}

// Copy implements hash-copy: a new table of the same Kind, its own
// mutable entry storage (so later mutation on the copy never touches
// the original), seeded from a snapshot like every other traversal
// here.
func Copy(v value.Value) (*Table, error) {
	t, ok := asTable(v)
	if !ok {
		return nil, corerr.New("hash-copy", corerr.ContractViolation, "not a hash table")
	}
	out := New(t.kind, false)
	for _, e := range t.items() {
		out.set(e.key, e.val)
	}
	return out, nil
}

// ForEach implements hash-for-each's CPS shape directly: stepAt ports
// hash.py's hash_for_each_cont/get_result_cont pair — a continuation
// that, once resumed with item n's result, asks for item n+1 — just
// with a Go closure standing in for the rpython @continuation
// decorator's generated class. Item n+1 is only requested after item
// n's call genuinely resumes, so a handler that itself suspends across
// the evaluator boundary still visits entries in order.
func ForEach(v value.Value, f value.Callable, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
	t, ok := asTable(v)
	if !ok {
		return trampoline.Final(corerr.New("hash-for-each", corerr.ContractViolation, "not a hash table"))
	}
	return stepAt(f, t.items(), 0, env, cont)
}

func stepAt(f value.Callable, items []entry, n int, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
	if n == len(items) {
		return cont.Invoke(trampoline.Return(value.Void{}, env, cont))
	}
	e := items[n]
	return f.Call([]value.Value{e.key, e.val}, env, forEachStep(func(trampoline.Step) trampoline.Step {
		return stepAt(f, items, n+1, env, cont)
	}))
}

type forEachStep func(trampoline.Step) trampoline.Step

func (f forEachStep) Invoke(s trampoline.Step) trampoline.Step { return f(s) }

// Map implements hash-map: run proc over every (key, value) pair and
// collect the results in hash-items order, which is insertion order
// over a snapshot taken when the walk starts.
func Map(v value.Value, proc value.Callable) ([]value.Value, error) {
	t, ok := asTable(v)
	if !ok {
		return nil, corerr.New("hash-map", corerr.ContractViolation, "not a hash table")
	}
	items := t.items()
	out := make([]value.Value, 0, len(items))
	for _, e := range items {
		result := trampoline.Run(proc.Call([]value.Value{e.key, e.val}, nil, trampoline.IdentityContinuation{}))
		if err, ok := result.(error); ok {
			return nil, err
		}
		val, ok := result.(value.Value)
		if !ok {
			return nil, corerr.New("hash-map", corerr.ContractViolation, "proc did not return a value")
		}
		out = append(out, val)
	}
	return out, nil
}

// Iterator is hash-iterate-first/-next/-key/-value's cursor: a stable
// index into a snapshot taken when iteration started, so concurrent
// hash-set!/hash-remove! on the live table cannot invalidate a cursor
// mid-walk.
type Iterator struct {
	items []entry
	pos   int
}

func IterateFirst(v value.Value) (*Iterator, bool) {
	t, ok := asTable(v)
	if !ok || t.Count() == 0 {
		return nil, false
	}
	return &Iterator{items: t.items(), pos: 0}, true
}

func (it *Iterator) Next() (*Iterator, bool) {
	if it.pos+1 >= len(it.items) {
		return nil, false
	}
	return &Iterator{items: it.items, pos: it.pos + 1}, true
}

func (it *Iterator) Key() value.Value   { return it.items[it.pos].key }
func (it *Iterator) Value() value.Value { return it.items[it.pos].val }

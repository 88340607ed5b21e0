package chaperone

import (
	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/numeric"
	"github.com/racketcore/valuecore/pkg/value"
)

// VectorWrapper backs impersonate-vector/chaperone-vector. Ref/Set
// handlers are invoked synchronously via invokeSync(Sync) — vector
// access in this core is a plain Go method call rather than a Step,
// so there is no evaluator loop leg to chain into the way there is
// for ProcedureWrapper.Call.
type VectorWrapper struct {
	Vec   *value.Vector
	RefH  value.Callable
	SetH  value.Callable
	K     Kind
	Props props
}

func ImpersonateVector(args []value.Value) (value.Value, error) {
	return newVectorWrapper("impersonate-vector", args, KindImpersonator)
}

func ChaperoneVector(args []value.Value) (value.Value, error) {
	return newVectorWrapper("chaperone-vector", args, KindChaperone)
}

func newVectorWrapper(op string, args []value.Value, kind Kind) (value.Value, error) {
	positional, p, err := unpackProperties(op, args)
	if err != nil {
		return nil, err
	}
	if len(positional) != 3 {
		return nil, corerr.New(op, corerr.ArityMismatch, "not given 3 required arguments")
	}
	vec, ok := positional[0].(*value.Vector)
	if !ok {
		return nil, corerr.New(op, corerr.ContractViolation, "first argument is not a vector")
	}
	if kind == KindImpersonator && vec.Immutable() {
		return nil, corerr.New(op, corerr.CannotImpersonateImmutable, "cannot impersonate an immutable vector")
	}
	refH, err := requireCallable(op, "ref handler", positional[1])
	if err != nil {
		return nil, err
	}
	setH, err := requireCallable(op, "set handler", positional[2])
	if err != nil {
		return nil, err
	}
	return &VectorWrapper{Vec: vec, RefH: refH, SetH: setH, K: kind, Props: p}, nil
}

func (*VectorWrapper) IsValue()             {}
func (w *VectorWrapper) kind() Kind         { return w.K }
func (w *VectorWrapper) Inner() value.Value { return w.Vec }
func (w *VectorWrapper) Immutable() bool    { return w.Vec.Immutable() }
func (w *VectorWrapper) Len() int           { return w.Vec.Len() }

// Ref runs (ref-proc wrapper i val) over the base read, matching
// impersonate-vector's documented ref-proc signature.
func (w *VectorWrapper) Ref(i int) (value.Value, error) {
	inner, err := vectorRef(w.Vec, i)
	if err != nil {
		return nil, err
	}
	return invokeSyncOne(w.RefH, []value.Value{w, numeric.Fixnum(i), inner})
}

// Set runs (set-proc wrapper i val) to obtain the value actually
// stored, then writes it through to the base vector.
// A chaperone's set-proc may only narrow, never truly substitute;
// this core does not deep-verify chaperone-of? on the returned value,
// it trusts the handler.
func (w *VectorWrapper) Set(i int, val value.Value) error {
	stored, err := invokeSyncOne(w.SetH, []value.Value{w, numeric.Fixnum(i), val})
	if err != nil {
		return err
	}
	return vectorSet(w.Vec, i, stored)
}

// vectorRef/vectorSet walk through any intervening wrapper so nested
// impersonate-vector chains compose (§4.4).
func vectorRef(v value.Value, i int) (value.Value, error) {
	if w, ok := v.(*VectorWrapper); ok {
		return w.Ref(i)
	}
	vec, ok := v.(*value.Vector)
	if !ok {
		return nil, corerr.New("vector-ref", corerr.ContractViolation, "not a vector")
	}
	if i < 0 || i >= vec.Len() {
		return nil, corerr.New("vector-ref", corerr.ContractViolation, "index out of range")
	}
	return vec.Ref(i), nil
}

func vectorSet(v value.Value, i int, val value.Value) error {
	if w, ok := v.(*VectorWrapper); ok {
		return w.Set(i, val)
	}
	vec, ok := v.(*value.Vector)
	if !ok {
		return corerr.New("vector-set!", corerr.ContractViolation, "not a vector")
	}
	if vec.Immutable() {
		return corerr.New("vector-set!", corerr.ImmutableFieldMutation, "vector is immutable")
	}
	if i < 0 || i >= vec.Len() {
		return corerr.New("vector-set!", corerr.ContractViolation, "index out of range")
	}
	vec.Set(i, val)
	return nil
}

// VectorRef and VectorSet are the public entry points evaluator
// primitives for vector-ref/vector-set! should call: they dispatch on
// whether v is wrapped without the caller needing to know.
func VectorRef(v value.Value, i int) (value.Value, error) { return vectorRef(v, i) }
func VectorSet(v value.Value, i int, val value.Value) error { return vectorSet(v, i, val) }

// Package value defines the evaluator-facing value kinds that the
// numeric, struct, chaperone, and hash-table layers treat as opaque
// payloads: booleans, symbols, pairs, the empty list, void, procedures,
// vectors, boxes, and continuation-mark keys. Numeric values live in
// pkg/numeric and struct values live in pkg/structs; both satisfy
// Value too, but are defined in their own packages to avoid an import
// cycle with the components that interpose on them.
package value

import "github.com/racketcore/valuecore/pkg/trampoline"

// Value is satisfied by every value kind the core hands back to the
// evaluator. It carries no behavior of its own — capability predicates
// below answer what a concrete Value supports.
type Value interface {
	IsValue()
}

// Printable is implemented by values with a REPL-style external
// representation.
type Printable interface {
	Print() string
}

// Callable is implemented by procedures and anything that stands in
// for one (chaperoned/impersonated procedures included).
type Callable interface {
	Value
	// Call invokes the procedure in continuation-passing style: the
	// result is handed to cont rather than returned directly, so the
	// evaluator's trampoline can resume the caller itself.
	Call(args []Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step
}

// Mutable is implemented by containers whose contents can be written
// after construction (vectors, boxes, mutable hash tables, non-
// immutable struct fields go through a narrower interface in
// pkg/structs).
type Mutable interface {
	Value
	Immutable() bool
}

func IsCallable(v Value) bool {
	_, ok := v.(Callable)
	return ok
}

// Bool is the two-element boolean type. Scheme's #f is the only value
// treated as false by conditionals elsewhere in the evaluator; the
// core itself never branches on truthiness.
type Bool bool

func (Bool) IsValue() {}
func (b Bool) Print() string {
	if b {
		return "#t"
	}
	return "#f"
}

// Symbol is an interned identifier. Interning itself is the reader's
// job (out of scope per spec §1); Symbol here is just a named string
// wrapper so struct type names and property names have something to
// carry.
type Symbol string

func (Symbol) IsValue()      {}
func (s Symbol) Print() string { return string(s) }

// Null is the empty list.
type Null struct{}

func (Null) IsValue()        {}
func (Null) Print() string   { return "()" }

var TheNull = Null{}

// Values wraps a multiple-value return (Racket's (values ...)), the
// shape a chaperone/impersonator handler produces when it rewrites
// more than one argument or result at once (§4.4).
type Values []Value

func (Values) IsValue() {}

// Void is the no-value result of effectful operations.
type Void struct{}

func (Void) IsValue()      {}
func (Void) Print() string { return "#<void>" }

var TheVoid = Void{}

// Cons is a mutable pair.
type Cons struct {
	Car, Cdr Value
}

func (*Cons) IsValue() {}

// Vector is a fixed-length mutable (unless frozen) array of values.
type Vector struct {
	Items    []Value
	immutable bool
}

func NewVector(items []Value, immutable bool) *Vector {
	return &Vector{Items: items, immutable: immutable}
}

func (*Vector) IsValue()        {}
func (v *Vector) Immutable() bool { return v.immutable }
func (v *Vector) Len() int        { return len(v.Items) }

func (v *Vector) Ref(i int) Value {
	return v.Items[i]
}

func (v *Vector) Set(i int, val Value) {
	v.Items[i] = val
}

// Box is a single mutable (unless frozen) cell.
type Box struct {
	val       Value
	immutable bool
}

func NewBox(v Value, immutable bool) *Box {
	return &Box{val: v, immutable: immutable}
}

func (*Box) IsValue()          {}
func (b *Box) Immutable() bool { return b.immutable }
func (b *Box) Unbox() Value    { return b.val }
func (b *Box) SetBox(v Value)  { b.val = v }

// ContinuationMarkKey is an opaque identity used to tag entries in the
// (evaluator-owned) continuation mark store. The core never reads the
// store itself; it only needs the key's identity for chaperoning.
type ContinuationMarkKey struct {
	Name Symbol
}

func (*ContinuationMarkKey) IsValue() {}

// Procedure is the base (unwrapped) callable value. fn is supplied by
// whatever constructs it — a primitive, a closure built by the
// evaluator, or an accessor/mutator from pkg/structs.
type Procedure struct {
	Name Symbol
	Fn   func(args []Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step
}

func NewProcedure(name Symbol, fn func([]Value, trampoline.Env, trampoline.Continuation) trampoline.Step) *Procedure {
	return &Procedure{Name: name, Fn: fn}
}

func (*Procedure) IsValue() {}

func (p *Procedure) Call(args []Value, env trampoline.Env, cont trampoline.Continuation) trampoline.Step {
	return p.Fn(args, env, cont)
}

func (p *Procedure) Print() string { return "#<procedure:" + string(p.Name) + ">" }

// GetBaseObject is the identity-peeling operation (§4.4);
// chaperone.Unwrap just calls it. It returns v unchanged unless v
// satisfies the Unwrapper interface, in which case it repeats on the
// wrapper's declared inner value until it reaches an unwrapped one.
type Unwrapper interface {
	Inner() Value
}

func GetBaseObject(v Value) Value {
	for {
		u, ok := v.(Unwrapper)
		if !ok {
			return v
		}
		v = u.Inner()
	}
}

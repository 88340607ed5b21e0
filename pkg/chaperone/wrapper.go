// Package chaperone implements the impersonator/chaperone wrapper
// layer (§4.4): interposition on procedures, vectors, boxes,
// continuation-mark-keys and struct instances, plus the
// impersonator-property maps every wrapper kind carries. Hash-table
// wrapping lives here too but is grounded through a narrow interface
// so this package never needs to import pkg/hashtable.
package chaperone

import (
	"fmt"

	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/structs"
	"github.com/racketcore/valuecore/pkg/trampoline"
	"github.com/racketcore/valuecore/pkg/value"
)

// Kind distinguishes an impersonator (can observe AND replace values,
// breaks equal?-style reasoning about the wrapped object) from a
// chaperone (can only observe or narrow, must preserve chaperone-of?).
type Kind int

const (
	KindImpersonator Kind = iota
	KindChaperone
)

func (k Kind) String() string {
	if k == KindChaperone {
		return "chaperone"
	}
	return "impersonator"
}

// ApplicationMarkProperty is impersonator-prop:application-mark, the
// one predefined impersonator property pycket exposes as a constant
// (impersonator.py's expose_val at module load).
var ApplicationMarkProperty = structs.NewPropertyDescriptor(value.Symbol("impersonator-prop:application-mark"), nil)

// props is the property map every wrapper kind carries (§4.4's
// "arbitrary property key/value pairs attached at wrap time").
type props map[*structs.PropertyDescriptor]value.Value

func (p props) get(key *structs.PropertyDescriptor) (value.Value, bool) {
	v, ok := p[key]
	return v, ok
}

// unpackProperties splits a flat impersonate-*/chaperone-* argument
// list into (positional args, alternating property key/value pairs),
// mirroring impersonator.py's find_prop_start_index + unpack_properties.
func unpackProperties(op string, args []value.Value) ([]value.Value, props, error) {
	idx := len(args)
	for i, a := range args {
		if _, ok := a.(*structs.PropertyDescriptor); ok {
			idx = i
			break
		}
	}
	positional, rest := args[:idx], args[idx:]
	if len(rest)%2 != 0 {
		return nil, nil, corerr.New(op, corerr.ContractViolation, "not all properties have corresponding values")
	}
	p := make(props, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		key, ok := rest[i].(*structs.PropertyDescriptor)
		if !ok {
			return nil, nil, corerr.New(op, corerr.ContractViolation, "expected a property descriptor")
		}
		p[key] = rest[i+1]
	}
	return positional, p, nil
}

func requireCallable(op, what string, v value.Value) (value.Callable, error) {
	c, ok := v.(value.Callable)
	if !ok {
		return nil, corerr.New(op, corerr.ContractViolation, what+" is not callable")
	}
	return c, nil
}

// funcContinuation adapts a plain function to trampoline.Continuation
// so a wrapper can chain "run the handler, then do X with its result"
// without the core ever blocking on the handler itself — the
// evaluator's own loop drives both legs.
type funcContinuation func(trampoline.Step) trampoline.Step

func (f funcContinuation) Invoke(s trampoline.Step) trampoline.Step { return f(s) }

// asArgs normalizes a Step's carried value into an argument list: a
// handler that produced (values a b c) yields three arguments, any
// other handler result yields one.
func asArgs(v any) ([]value.Value, error) {
	if err, ok := v.(error); ok {
		return nil, err
	}
	if mv, ok := v.(value.Values); ok {
		return []value.Value(mv), nil
	}
	val, ok := v.(value.Value)
	if !ok {
		return nil, fmt.Errorf("chaperone: handler returned a non-value result")
	}
	return []value.Value{val}, nil
}

// invokeSync drives a handler call to completion with
// trampoline.IdentityContinuation. The vector, box, continuation-mark
// key, struct and hash wrappers all use it, since the operations they
// wrap are synchronous Go methods rather than CPS Steps; only
// ProcedureWrapper.Call threads the caller's continuation through its
// handler.
func invokeSync(fn value.Callable, args []value.Value) ([]value.Value, error) {
	result := trampoline.Run(fn.Call(args, nil, trampoline.IdentityContinuation{}))
	return asArgs(result)
}

func invokeSyncOne(fn value.Callable, args []value.Value) (value.Value, error) {
	vs, err := invokeSync(fn, args)
	if err != nil {
		return nil, err
	}
	if len(vs) != 1 {
		return nil, fmt.Errorf("chaperone: handler returned %d values, expected 1", len(vs))
	}
	return vs[0], nil
}

// Unwrap is the real identity-peeling operation get_base_object needs
// (value.GetBaseObject already does the generic loop via the
// value.Unwrapper interface every wrapper kind below implements).
func Unwrap(v value.Value) value.Value { return value.GetBaseObject(v) }

// IsImpersonator reports whether v is an impersonator anywhere in its
// wrapper chain, or is itself a non-struct impersonator wrapper.
func IsImpersonator(v value.Value) bool {
	for cur := v; ; {
		w, ok := cur.(interface{ kind() Kind })
		if !ok {
			return false
		}
		if w.kind() == KindImpersonator {
			return true
		}
		u := cur.(value.Unwrapper)
		cur = u.Inner()
	}
}

// IsChaperone reports whether every wrapper in v's chain is a
// chaperone (chaperone? requires the whole chain to be non-impersonating).
// A value with no wrapper at all has an empty chain and counts as a
// chaperone.
func IsChaperone(v value.Value) bool {
	for cur := v; ; {
		w, ok := cur.(interface{ kind() Kind })
		if !ok {
			return true
		}
		if w.kind() == KindImpersonator {
			return false
		}
		u := cur.(value.Unwrapper)
		cur = u.Inner()
	}
}

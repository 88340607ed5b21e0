package chaperone

import (
	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/structs"
	"github.com/racketcore/valuecore/pkg/value"
)

// ChaperoneOf reports whether a is b or a chaperone of b: walking a's
// wrapper chain must reach exactly b, and every link walked must be a
// chaperone, never an impersonator (impersonator.py's
// EqualInfo.CHAPERONE_SINGLETON mode). This core does not re-derive
// the deep structural equal? pycket's equal_func performs for
// composite chaperoned values (vectors of chaperoned structs, etc.);
// it answers for the direct wrapper-chain case, which covers every
// example in spec.md §8.
func ChaperoneOf(a, b value.Value) bool {
	if a == b {
		return true
	}
	for cur := a; ; {
		w, ok := cur.(interface{ kind() Kind })
		if !ok {
			return false
		}
		if w.kind() == KindImpersonator {
			return false
		}
		u := cur.(value.Unwrapper)
		cur = u.Inner()
		if cur == b {
			return true
		}
	}
}

// ImpersonatorOf is ChaperoneOf without the chaperone-only
// restriction: any wrapper chain (impersonating or not) from a down
// to b counts.
func ImpersonatorOf(a, b value.Value) bool {
	for cur := a; ; {
		if cur == b {
			return true
		}
		u, ok := cur.(value.Unwrapper)
		if !ok {
			return false
		}
		cur = u.Inner()
	}
}

// MakeImpersonatorProperty implements make-impersonator-property: a
// fresh PropertyDescriptor plus its predicate and accessor closures,
// exactly the triple make-struct-type-property returns for structs
// (impersonator.py's make_imp_prop).
type ImpersonatorPropertyResult struct {
	Descriptor *structs.PropertyDescriptor
	Predicate  func(value.Value) bool
	Accessor   func(value.Value) (value.Value, error)
}

func MakeImpersonatorProperty(name value.Symbol) ImpersonatorPropertyResult {
	desc := structs.NewPropertyDescriptor(name, nil)
	return ImpersonatorPropertyResult{
		Descriptor: desc,
		Predicate: func(v value.Value) bool {
			_, ok := lookupProperty(v, desc)
			return ok
		},
		Accessor: func(v value.Value) (value.Value, error) {
			val, ok := lookupProperty(v, desc)
			if !ok {
				return nil, lookupFailure(name)
			}
			return val, nil
		},
	}
}

func lookupProperty(v value.Value, desc *structs.PropertyDescriptor) (value.Value, bool) {
	switch w := v.(type) {
	case *ProcedureWrapper:
		val, ok := w.Props.get(desc)
		return val, ok
	case *VectorWrapper:
		val, ok := w.Props.get(desc)
		return val, ok
	case *BoxWrapper:
		val, ok := w.Props.get(desc)
		return val, ok
	case *ContinuationMarkKeyWrapper:
		val, ok := w.Props.get(desc)
		return val, ok
	case *StructWrapper:
		val, ok := w.Props.get(desc)
		return val, ok
	case *HashWrapper:
		val, ok := w.Props.get(desc)
		return val, ok
	}
	return nil, false
}

func lookupFailure(name value.Symbol) error {
	return corerr.New("impersonator-property-accessor", corerr.KeyNotFound, "no value found for property "+string(name))
}

package chaperone

import (
	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/structs"
	"github.com/racketcore/valuecore/pkg/value"
)

// overrideKey identifies a declared field slot by its declaring type
// and local index — the identity impersonate-struct/chaperone-struct
// match an override accessor/mutator against, since the evaluator may
// mint a fresh *FieldAccessor per lookup rather than reusing one.
type overrideKey struct {
	typ *structs.StructType
	idx int
}

// StructWrapper backs impersonate-struct/chaperone-struct. Base is
// either a *structs.Struct or another *StructWrapper, so wrapper
// chains compose: an override miss falls through to the accessor's
// own Read/Write, which recurses into Base via the FieldReader/
// FieldWriter interfaces declared in pkg/structs.
type StructWrapper struct {
	Base       value.Value
	Accessors  map[overrideKey]value.Callable
	Mutators   map[overrideKey]value.Callable
	Properties map[*structs.PropertyDescriptor]value.Callable
	K          Kind
	Props      props
}

func ImpersonateStruct(args []value.Value) (value.Value, error) {
	return newStructWrapper("impersonate-struct", args, KindImpersonator)
}

func ChaperoneStruct(args []value.Value) (value.Value, error) {
	return newStructWrapper("chaperone-struct", args, KindChaperone)
}

func newStructWrapper(op string, args []value.Value, kind Kind) (value.Value, error) {
	positional, p, err := unpackProperties(op, args)
	if err != nil {
		return nil, err
	}
	if len(positional) < 1 || len(positional)%2 != 1 {
		return nil, corerr.New(op, corerr.ArityMismatch, "arity mismatch")
	}
	if len(positional) == 1 {
		return positional[0], nil
	}

	target := positional[0]
	if _, ok := value.GetBaseObject(target).(*structs.Struct); !ok {
		return nil, corerr.New(op, corerr.ContractViolation, "not given a struct")
	}

	accOverrides := make(map[overrideKey]value.Callable)
	mutOverrides := make(map[overrideKey]value.Callable)
	propOverrides := make(map[*structs.PropertyDescriptor]value.Callable)
	for i := 1; i < len(positional); i += 2 {
		override, handler := positional[i], positional[i+1]
		h, err := requireCallable(op, "supplied handler", handler)
		if err != nil {
			return nil, err
		}
		switch o := override.(type) {
		case *structs.FieldAccessor:
			if kind == KindImpersonator && o.Type.Immutables[o.FieldIndex] {
				return nil, corerr.New(op, corerr.CannotImpersonateImmutable, "cannot impersonate an immutable field")
			}
			accOverrides[overrideKey{o.Type, o.FieldIndex}] = h
		case *structs.FieldMutator:
			if kind == KindImpersonator && o.Type.Immutables[o.FieldIndex] {
				return nil, corerr.New(op, corerr.CannotImpersonateImmutable, "cannot impersonate an immutable field")
			}
			mutOverrides[overrideKey{o.Type, o.FieldIndex}] = h
		case *structs.PropertyAccessor:
			propOverrides[o.Prop] = h
		default:
			return nil, corerr.New(op, corerr.ContractViolation, "not given a valid field accessor, mutator, or property accessor")
		}
	}

	return &StructWrapper{Base: target, Accessors: accOverrides, Mutators: mutOverrides, Properties: propOverrides, K: kind, Props: p}, nil
}

func (*StructWrapper) IsValue()             {}
func (w *StructWrapper) kind() Kind         { return w.K }
func (w *StructWrapper) Inner() value.Value { return w.Base }

func (w *StructWrapper) ReadField(acc *structs.FieldAccessor) (value.Value, error) {
	inner, err := acc.Read(w.Base)
	if err != nil {
		return nil, err
	}
	if h, ok := w.Accessors[overrideKey{acc.Type, acc.FieldIndex}]; ok {
		return invokeSyncOne(h, []value.Value{w, inner})
	}
	return inner, nil
}

func (w *StructWrapper) WriteField(mut *structs.FieldMutator, val value.Value) error {
	toStore := val
	if h, ok := w.Mutators[overrideKey{mut.Type, mut.FieldIndex}]; ok {
		stored, err := invokeSyncOne(h, []value.Value{w, val})
		if err != nil {
			return err
		}
		toStore = stored
	}
	return mut.Write(w.Base, toStore)
}

// ReadProperty lets a struct-type-property accessor interpose on a
// wrapped struct the same way ReadField does for fields: an overridden
// property runs the supplied handler on (wrapper, declared-value)
// before the result is handed back, exactly as spec §4.4 step 3
// extends the override set to property accessors.
func (w *StructWrapper) ReadProperty(acc *structs.PropertyAccessor) (value.Value, error) {
	inner, err := acc.Read(w.Base)
	if err != nil {
		return nil, err
	}
	if h, ok := w.Properties[acc.Prop]; ok {
		return invokeSyncOne(h, []value.Value{w, inner})
	}
	return inner, nil
}

package chaperone

import (
	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/value"
)

// BoxWrapper backs impersonate-box/chaperone-box.
type BoxWrapper struct {
	B      *value.Box
	UnboxH value.Callable
	SetH   value.Callable
	K      Kind
	Props  props
}

func ImpersonateBox(args []value.Value) (value.Value, error) {
	return newBoxWrapper("impersonate-box", args, KindImpersonator)
}

func ChaperoneBox(args []value.Value) (value.Value, error) {
	return newBoxWrapper("chaperone-box", args, KindChaperone)
}

func newBoxWrapper(op string, args []value.Value, kind Kind) (value.Value, error) {
	positional, p, err := unpackProperties(op, args)
	if err != nil {
		return nil, err
	}
	if len(positional) != 3 {
		return nil, corerr.New(op, corerr.ArityMismatch, "not given three required arguments")
	}
	box, ok := positional[0].(*value.Box)
	if !ok {
		return nil, corerr.New(op, corerr.ContractViolation, "first argument is not a box")
	}
	if kind == KindImpersonator && box.Immutable() {
		return nil, corerr.New(op, corerr.CannotImpersonateImmutable, "cannot impersonate an immutable box")
	}
	unboxH, err := requireCallable(op, "unbox handler", positional[1])
	if err != nil {
		return nil, err
	}
	setH, err := requireCallable(op, "set-box! handler", positional[2])
	if err != nil {
		return nil, err
	}
	return &BoxWrapper{B: box, UnboxH: unboxH, SetH: setH, K: kind, Props: p}, nil
}

func (*BoxWrapper) IsValue()             {}
func (w *BoxWrapper) kind() Kind         { return w.K }
func (w *BoxWrapper) Inner() value.Value { return w.B }
func (w *BoxWrapper) Immutable() bool    { return w.B.Immutable() }

func BoxUnbox(v value.Value) (value.Value, error) {
	if w, ok := v.(*BoxWrapper); ok {
		return invokeSyncOne(w.UnboxH, []value.Value{w, BoxUnboxInner(w)})
	}
	b, ok := v.(*value.Box)
	if !ok {
		return nil, corerr.New("unbox", corerr.ContractViolation, "not a box")
	}
	return b.Unbox(), nil
}

// BoxUnboxInner reads straight through any wrapper chain, the value
// the unbox handler is given to transform.
func BoxUnboxInner(v value.Value) value.Value {
	base := value.GetBaseObject(v)
	b, ok := base.(*value.Box)
	if !ok {
		return nil
	}
	return b.Unbox()
}

func BoxSetBox(v value.Value, val value.Value) error {
	if w, ok := v.(*BoxWrapper); ok {
		stored, err := invokeSyncOne(w.SetH, []value.Value{w, val})
		if err != nil {
			return err
		}
		return BoxSetBox(w.B, stored)
	}
	b, ok := v.(*value.Box)
	if !ok {
		return corerr.New("set-box!", corerr.ContractViolation, "not a box")
	}
	if b.Immutable() {
		return corerr.New("set-box!", corerr.ImmutableFieldMutation, "box is immutable")
	}
	b.SetBox(val)
	return nil
}

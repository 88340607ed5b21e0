package chaperone

import (
	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/value"
)

// ContinuationMarkKeyWrapper backs impersonate-continuation-mark-key/
// chaperone-continuation-mark-key. The underlying mark store itself is
// the evaluator's, not the core's (§1's scope note); this wrapper only
// interposes on the get/set procedures a key's holder calls.
type ContinuationMarkKeyWrapper struct {
	Key   *value.ContinuationMarkKey
	GetH  value.Callable
	SetH  value.Callable
	K     Kind
	Props props
}

func ImpersonateContinuationMarkKey(args []value.Value) (value.Value, error) {
	return newCMKWrapper("impersonate-continuation-mark-key", args, KindImpersonator)
}

func ChaperoneContinuationMarkKey(args []value.Value) (value.Value, error) {
	return newCMKWrapper("chaperone-continuation-mark-key", args, KindChaperone)
}

func newCMKWrapper(op string, args []value.Value, kind Kind) (value.Value, error) {
	positional, p, err := unpackProperties(op, args)
	if err != nil {
		return nil, err
	}
	if len(positional) != 3 {
		return nil, corerr.New(op, corerr.ArityMismatch, "not given three required arguments")
	}
	key, ok := positional[0].(*value.ContinuationMarkKey)
	if !ok {
		return nil, corerr.New(op, corerr.ContractViolation, "supplied key is not a continuation-mark-key")
	}
	getH, err := requireCallable(op, "get-proc", positional[1])
	if err != nil {
		return nil, err
	}
	setH, err := requireCallable(op, "set-proc", positional[2])
	if err != nil {
		return nil, err
	}
	return &ContinuationMarkKeyWrapper{Key: key, GetH: getH, SetH: setH, K: kind, Props: p}, nil
}

func (*ContinuationMarkKeyWrapper) IsValue()             {}
func (w *ContinuationMarkKeyWrapper) kind() Kind         { return w.K }
func (w *ContinuationMarkKeyWrapper) Inner() value.Value { return w.Key }

// CMKGet/CMKSet are the hooks a mark-store implementation (owned by
// the evaluator) calls instead of touching the raw key, so wrapped
// keys interpose the same way wrapped vectors and boxes do.
func CMKGet(v value.Value, raw value.Value) (value.Value, error) {
	w, ok := v.(*ContinuationMarkKeyWrapper)
	if !ok {
		return raw, nil
	}
	return invokeSyncOne(w.GetH, []value.Value{w, raw})
}

func CMKSet(v value.Value, val value.Value) (value.Value, error) {
	w, ok := v.(*ContinuationMarkKeyWrapper)
	if !ok {
		return val, nil
	}
	return invokeSyncOne(w.SetH, []value.Value{w, val})
}

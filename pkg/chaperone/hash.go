package chaperone

import (
	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/value"
)

// HashLike is the narrow surface impersonate-hash/chaperone-hash need
// from a hash table — just enough to check mutability — so this
// package never imports pkg/hashtable (which instead imports this
// package's public wrapper-detection helpers where it needs them).
type HashLike interface {
	value.Value
	Immutable() bool
}

// HashWrapper backs impersonate-hash/chaperone-hash (§4.4). ClearH may
// be nil: chaperone.py's unpack_hash_args accepts either 5 or 6
// positional arguments, clear-proc being optional.
type HashWrapper struct {
	H        HashLike
	RefH     value.Callable
	SetH     value.Callable
	RemoveH  value.Callable
	KeyH     value.Callable
	ClearH   value.Callable
	K        Kind
	Props    props
}

func ImpersonateHash(args []value.Value) (value.Value, error) {
	return newHashWrapper("impersonate-hash", args, KindImpersonator)
}

func ChaperoneHash(args []value.Value) (value.Value, error) {
	return newHashWrapper("chaperone-hash", args, KindChaperone)
}

func newHashWrapper(op string, args []value.Value, kind Kind) (value.Value, error) {
	positional, p, err := unpackProperties(op, args)
	if err != nil {
		return nil, err
	}
	if len(positional) != 5 && len(positional) != 6 {
		return nil, corerr.New(op, corerr.ArityMismatch, "wrong number of arguments")
	}
	h, ok := positional[0].(HashLike)
	if !ok {
		return nil, corerr.New(op, corerr.ContractViolation, "first argument is not a hash")
	}
	if kind == KindImpersonator && h.Immutable() {
		return nil, corerr.New(op, corerr.CannotImpersonateImmutable, "cannot impersonate an immutable hash")
	}
	refH, err := requireCallable(op, "ref-proc", positional[1])
	if err != nil {
		return nil, err
	}
	setH, err := requireCallable(op, "set-proc", positional[2])
	if err != nil {
		return nil, err
	}
	removeH, err := requireCallable(op, "remove-proc", positional[3])
	if err != nil {
		return nil, err
	}
	keyH, err := requireCallable(op, "key-proc", positional[4])
	if err != nil {
		return nil, err
	}
	var clearH value.Callable
	if len(positional) == 6 {
		clearH, err = requireCallable(op, "clear-proc", positional[5])
		if err != nil {
			return nil, err
		}
	}
	return &HashWrapper{H: h, RefH: refH, SetH: setH, RemoveH: removeH, KeyH: keyH, ClearH: clearH, K: kind, Props: p}, nil
}

func (*HashWrapper) IsValue()             {}
func (w *HashWrapper) kind() Kind         { return w.K }
func (w *HashWrapper) Inner() value.Value { return w.H }
func (w *HashWrapper) Immutable() bool    { return w.H.Immutable() }

// HashRef/HashSet/HashRemove are the hooks
// pkg/hashtable's table operations call through instead of touching a
// possibly-wrapped table directly.
func HashRef(v value.Value, key value.Value, rawRef func(value.Value) (value.Value, bool)) (value.Value, bool, error) {
	w, ok := v.(*HashWrapper)
	if !ok {
		val, found := rawRef(key)
		return val, found, nil
	}
	wrappedKey, err := invokeSyncOne(w.KeyH, []value.Value{w, key})
	if err != nil {
		return nil, false, err
	}
	val, found, err := HashRef(w.H, wrappedKey, rawRef)
	if err != nil || !found {
		return nil, found, err
	}
	result, err := invokeSyncOne(w.RefH, []value.Value{w, wrappedKey, val})
	return result, true, err
}

func HashSet(v value.Value, key, val value.Value, rawSet func(value.Value, value.Value)) error {
	w, ok := v.(*HashWrapper)
	if !ok {
		rawSet(key, val)
		return nil
	}
	args, err := invokeSync(w.SetH, []value.Value{w, key, val})
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return corerr.New("hash-set!", corerr.ContractViolation, "set-proc must return a key and a value")
	}
	return HashSet(w.H, args[0], args[1], rawSet)
}

func HashRemove(v value.Value, key value.Value, rawRemove func(value.Value)) error {
	w, ok := v.(*HashWrapper)
	if !ok {
		rawRemove(key)
		return nil
	}
	newKey, err := invokeSyncOne(w.RemoveH, []value.Value{w, key})
	if err != nil {
		return err
	}
	return HashRemove(w.H, newKey, rawRemove)
}

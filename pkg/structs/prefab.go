package structs

import (
	"fmt"

	"github.com/racketcore/valuecore/pkg/corerr"
	"github.com/racketcore/valuecore/pkg/value"
)

// PrefabKey is the interned identity of a prefab struct type (§4.2):
// two make-struct-type calls with make-prefab-struct-type-equivalent
// arguments must produce (eq?) the same type, independent of when or
// where they were called. Racket derives the key from name, field
// counts, auto_val and the immutable-field set; we do the same and
// additionally fold in the super's own (already-canonical) key
// pointer, so the whole ancestry participates in equivalence.
type PrefabKey struct {
	Name         value.Symbol
	InitFieldCnt int
	AutoFieldCnt int
	AutoVal      value.Value
	Immutable    map[int]bool
	Super        *PrefabKey
}

func (*PrefabKey) IsValue() {}

// prefabKeySig is the comparable signature used to intern PrefabKeys.
// Immutable indices are folded into a bitmask, and AutoVal is
// projected down to a string via autoValSig, so the signature itself
// is a plain comparable struct usable as a Go map key even though
// value.Value (an interface) is not always comparable on its own.
type prefabKeySig struct {
	name         value.Symbol
	initFieldCnt int
	autoFieldCnt int
	autoVal      string
	immutMask    uint64
	super        *PrefabKey
}

// autoValSig projects an auto_val into a comparable string: its
// dynamic type plus its printed form, so two distinct auto_vals that
// print the same (e.g. a Fixnum 0 vs a Flonum 0.0) never collide.
func autoValSig(v value.Value) string {
	if v == nil {
		return "<nil>"
	}
	if p, ok := v.(value.Printable); ok {
		return fmt.Sprintf("%T:%s", v, p.Print())
	}
	return fmt.Sprintf("%T:%v", v, v)
}

func immutableMask(immutables map[int]bool) uint64 {
	var mask uint64
	for idx := range immutables {
		if idx >= 0 && idx < 64 {
			mask |= 1 << uint(idx)
		}
	}
	return mask
}

// InternPrefabKey returns the canonical *PrefabKey for the given
// shape, creating it on first use. super must itself already be
// canonical (obtained from a prior InternPrefabKey call, or nil).
// Two calls that differ only in autoVal intern to distinct keys (and
// so to distinct prefab types), matching spec §4.2's key shape
// `(name, init_count, auto_count, auto_val, immutables_mask, super_key?)`.
func (r *Registry) InternPrefabKey(name value.Symbol, initFieldCnt, autoFieldCnt int, autoVal value.Value, immutables map[int]bool, super *PrefabKey) *PrefabKey {
	sig := prefabKeySig{
		name:         name,
		initFieldCnt: initFieldCnt,
		autoFieldCnt: autoFieldCnt,
		autoVal:      autoValSig(autoVal),
		immutMask:    immutableMask(immutables),
		super:        super,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if k, ok := r.prefabKeys[sig]; ok {
		return k
	}
	immCopy := make(map[int]bool, len(immutables))
	for idx := range immutables {
		immCopy[idx] = true
	}
	k := &PrefabKey{Name: name, InitFieldCnt: initFieldCnt, AutoFieldCnt: autoFieldCnt, AutoVal: autoVal, Immutable: immCopy, Super: super}
	r.prefabKeys[sig] = k
	return k
}

// MakePrefabStructType implements make-prefab-struct-type: it is
// make-struct-type restricted to the prefab subset (no guard, no
// properties, no proc_spec, transparent) and interned by PrefabKey so
// repeated calls with the same shape return the identical *StructType;
// the constructor, predicate, accessor and mutator values are freshly
// allocated on each call.
func (r *Registry) MakePrefabStructType(name value.Symbol, super *StructType, initFieldCnt, autoFieldCnt int, autoVal value.Value, immutables []int) (*StructTypeResult, error) {
	immSet := make(map[int]bool, len(immutables))
	for _, idx := range immutables {
		immSet[idx] = true
	}
	var superKey *PrefabKey
	if super != nil {
		if !super.IsPrefab {
			return nil, corerr.New("make-prefab-struct-type", corerr.ContractViolation, "super "+string(super.Name)+" is not itself a prefab type")
		}
		superKey = super.PrefabKey
	}
	key := r.InternPrefabKey(name, initFieldCnt, autoFieldCnt, autoVal, immSet, superKey)

	r.mu.Lock()
	if t, ok := r.prefabTypes[key]; ok {
		r.mu.Unlock()
		return &StructTypeResult{
			Type:        t,
			Constructor: &Constructor{Type: t},
			Predicate:   &Predicate{Type: t},
			Accessor:    &FieldAccessor{Type: t},
			Mutator:     &FieldMutator{Type: t},
			Super:       super,
		}, nil
	}
	r.mu.Unlock()

	res, err := r.MakeStructType(name, super, initFieldCnt, autoFieldCnt, autoVal, nil, r.CurrentInspector(), immutables, nil, name)
	if err != nil {
		return nil, err
	}
	res.Type.IsPrefab = true
	res.Type.IsOpaque = false
	res.Type.PrefabKey = key

	r.mu.Lock()
	r.prefabTypes[key] = res.Type
	r.mu.Unlock()
	return res, nil
}
